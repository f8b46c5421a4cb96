package registry

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func toolNames(tools []mcp.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

func TestReadOnlyToolFilter_HidesMutatingTools(t *testing.T) {
	tools := []mcp.Tool{
		{Name: "find_documents"},
		{Name: "delete_documents"},
		{Name: "drop_collection"},
		{Name: "collection_stats"},
		{Name: "export_collection"},
	}

	readOnly := NewReadOnlyToolFilter(true)
	got := toolNames(readOnly.FilterTools(context.Background(), tools))
	require.Equal(t, []string{"find_documents", "collection_stats", "export_collection"}, got)

	writable := NewReadOnlyToolFilter(false)
	require.Len(t, writable.FilterTools(context.Background(), tools), len(tools))
}

func TestRegistry_AdminTagging(t *testing.T) {
	reg := New()
	reg.Register(mcp.Tool{Name: "find_documents"})
	reg.RegisterAdmin(mcp.Tool{Name: "drop_collection"})
	reg.RegisterAdmin(mcp.Tool{Name: "create_index"})

	require.Equal(t, []string{"create_index", "drop_collection"}, reg.AdminToolNames())

	tools, err := reg.Tools(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"create_index", "drop_collection", "find_documents"}, toolNames(tools))

	_, ok := reg.Get("drop_collection")
	require.True(t, ok)
	_, ok = reg.Get("missing")
	require.False(t, ok)
}
