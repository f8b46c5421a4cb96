package registry

import (
	"context"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// mutatingTools are hidden from discovery in read-only mode. Export is kept:
// it writes to the local filesystem, never to the database.
var mutatingTools = map[string]struct{}{
	"create_collection": {},
	"drop_collection":   {},
	"create_index":      {},
	"update_documents":  {},
	"delete_documents":  {},
	"clone_collection":  {},
}

// ReadOnlyToolFilter conditionally hides mutating tools unless writes are
// explicitly enabled. Read-only is the safe default for agent-driven use.
type ReadOnlyToolFilter struct {
	readOnly bool
}

// NewReadOnlyToolFilter constructs a filter with an explicit mode.
func NewReadOnlyToolFilter(readOnly bool) *ReadOnlyToolFilter {
	return &ReadOnlyToolFilter{readOnly: readOnly}
}

// NewReadOnlyToolFilterFromEnv constructs a filter using MCPMONGO_READ_ONLY.
func NewReadOnlyToolFilterFromEnv() *ReadOnlyToolFilter {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("MCPMONGO_READ_ONLY")))
	readOnly := v == "1" || v == "true" || v == "yes"
	return &ReadOnlyToolFilter{readOnly: readOnly}
}

// ReadOnly reports the configured mode so handlers can refuse writes that a
// client calls directly despite the tool being hidden.
func (f *ReadOnlyToolFilter) ReadOnly() bool {
	return f.readOnly
}

// FilterTools implements server tool filtering semantics. When the server is
// read-only, mutating tools are excluded from discovery.
func (f *ReadOnlyToolFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if !f.readOnly {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if _, mutating := mutatingTools[t.Name]; mutating {
			continue
		}
		out = append(out, t)
	}
	return out
}
