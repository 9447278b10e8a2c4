package inherit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/symboldb-tools/internal/model"
)

func TestLegacyEmptyChildListKeepsInherited(t *testing.T) {
	parent := model.Document{
		"tags": []any{"x", "y"},
		"routes": []any{
			map[string]any{"accountId": "a1", "account": map[string]any{"p": 1}},
		},
	}
	child := model.Document{"tags": []any{}, "routes": []any{}}

	legacy := NewResolver(newFakeStore(), WithLegacyListDetection())
	got, err := legacy.Build(context.Background(), ByChain(parent, child), true, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, got["tags"])
	assert.Len(t, got["routes"], 1)

	plain := NewResolver(newFakeStore())
	got, err = plain.Build(context.Background(), ByChain(parent, child), true, nil)
	require.NoError(t, err)
	assert.Empty(t, got["tags"], "undeclared lists are replaced by the child")
}

func TestLegacyIDKey(t *testing.T) {
	tests := []struct {
		name  string
		items []any
		want  string
		ok    bool
	}{
		{"empty", nil, "", false},
		{"scalars", []any{"x"}, "", false},
		{"account", []any{map[string]any{"account": map[string]any{"p": 1}}}, "accountId", true},
		{"gateway", []any{map[string]any{"gateway": map[string]any{"p": 1}}}, "gatewayId", true},
		{"no marker", []any{map[string]any{"symbol": "ES"}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := legacyIDKey(tt.items)
			assert.Equal(t, tt.want, key)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
