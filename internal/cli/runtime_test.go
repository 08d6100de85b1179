package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/stash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T, o Options) *Runtime {
	t.Helper()
	t.Setenv("STASH_LOTTERY", "0,100")
	o.LogOutput = io.Discard
	rt, err := NewRuntime(o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOptions_FlagsOverrideFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: fromfile\nbackend: file\nlifetime: 30m\n"), 0o644))
	t.Setenv("STASH_BACKEND", "redis")
	t.Setenv("STASH_LOG_LEVEL", "warn")

	cfg, err := Options{ConfigPath: path, Backend: "buntdb", Path: filepath.Join(dir, "s.db")}.Config()
	require.NoError(t, err)

	assert.Equal(t, "fromfile", cfg.Name)
	assert.Equal(t, stash.BackendBuntDB, cfg.Backend)
	assert.Equal(t, filepath.Join(dir, "s.db"), cfg.Path)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestNewRuntime(t *testing.T) {
	rt := newRuntime(t, Options{Name: "cli", Backend: stash.BackendMemory, LogLevel: "debug"})

	assert.Equal(t, "cli", rt.Manager.Name())
	assert.NotNil(t, rt.Registry)
	assert.NotNil(t, rt.Logger)
}

func TestNewRuntime_Errors(t *testing.T) {
	_, err := NewRuntime(Options{LogLevel: "loud", LogOutput: io.Discard})
	assert.Error(t, err)

	_, err = NewRuntime(Options{Backend: "cassandra", LogOutput: io.Discard})
	assert.Error(t, err)

	_, err = NewRuntime(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"), LogOutput: io.Discard})
	assert.Error(t, err)
}
