package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Options carries the global command-line flags. Empty fields leave the
// file and environment configuration untouched.
type Options struct {
	ConfigPath string
	Name       string
	Backend    string
	Path       string
	RedisAddr  string
	LogLevel   string

	// LogOutput defaults to Stderr.
	LogOutput io.Writer
}

// Config resolves the configuration in order: YAML file, STASH_* environment,
// then flags.
func (o Options) Config() (stash.Config, error) {
	cfg, err := stash.ReadConfig(o.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if o.Name != "" {
		cfg.Name = o.Name
	}
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.Path != "" {
		cfg.Path = o.Path
	}
	if o.RedisAddr != "" {
		cfg.Redis.Addr = o.RedisAddr
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return cfg, nil
}

// Runtime bundles the manager with the logger and metrics registry every
// command shares.
type Runtime struct {
	Manager  *stash.Manager
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// NewRuntime opens the configured backend.
func NewRuntime(o Options) (*Runtime, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	out := o.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := logging.NewWithWriter(out, level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := stash.New(cfg,
		stash.WithLogger(logger),
		stash.WithMetrics(observability.NewMetrics(reg)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start session manager: %w", err)
	}

	return &Runtime{Manager: m, Logger: logger, Registry: reg}, nil
}

// Close releases the backend.
func (r *Runtime) Close() error {
	return r.Manager.Close()
}
