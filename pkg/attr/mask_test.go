package attr_test

import (
	"testing"

	"github.com/aretw0/stash/pkg/attr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMasker(t *testing.T) {
	m, err := attr.NewMasker([]string{`(?i)password`, `^token$`})
	require.NoError(t, err)

	tree := map[string]any{
		"user":   map[string]any{"name": "Ann", "Password": "hunter2"},
		"token":  "abc",
		"tokens": []any{map[string]any{"token": "x", "id": 1}},
	}
	got := m.Mask(tree)

	assert.Equal(t, map[string]any{
		"user":   map[string]any{"name": "Ann", "Password": attr.Redacted},
		"token":  attr.Redacted,
		"tokens": []any{map[string]any{"token": attr.Redacted, "id": 1}},
	}, got)
	assert.Equal(t, "hunter2", tree["user"].(map[string]any)["Password"], "input is not modified")
}

func TestMasker_Empty(t *testing.T) {
	var nilMasker *attr.Masker
	tree := map[string]any{"password": "x"}
	assert.Equal(t, tree, nilMasker.Mask(tree))
	assert.Nil(t, nilMasker.Mask(nil))

	_, err := attr.NewMasker([]string{"("})
	assert.Error(t, err)
}
