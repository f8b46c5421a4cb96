package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolProvider resolves MCP tool definitions and associates runtime metadata.
type ToolProvider interface {
	Tools(context.Context) ([]mcp.Tool, error)
}

// Registry maintains tool definitions and tags admin-class tools so the
// middleware can rate-limit them by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]mcp.Tool
	admin map[string]struct{}
}

// New constructs an empty Registry ready for tool population.
func New() *Registry {
	return &Registry{
		tools: map[string]mcp.Tool{},
		admin: map[string]struct{}{},
	}
}

// Register stores a tool definition for discovery.
func (r *Registry) Register(tool mcp.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name] = tool
}

// RegisterAdmin stores a tool definition and tags it as administrative, which
// subjects it to the fixed-window rate limiter.
func (r *Registry) RegisterAdmin(tool mcp.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name] = tool
	r.admin[tool.Name] = struct{}{}
}

// Get returns a tool by name when present.
func (r *Registry) Get(name string) (mcp.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// IsAdmin reports whether the named tool is admin-tagged.
func (r *Registry) IsAdmin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.admin[name]
	return ok
}

// AdminToolNames returns the sorted names of admin-tagged tools.
func (r *Registry) AdminToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.admin))
	for name := range r.admin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns a stable-sorted list of registered tool definitions.
func (r *Registry) Tools(ctx context.Context) ([]mcp.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_ = ctx // placeholder for future context-aware filtering

	tools := make([]mcp.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	return tools, nil
}
