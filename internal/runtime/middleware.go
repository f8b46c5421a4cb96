package runtime

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/mcpmongo/internal/safety"
)

// AdminTagger reports whether a tool name is administrative. The lookup is
// lazy because middleware is installed at server construction, before the
// tool set is registered.
type AdminTagger interface {
	IsAdmin(name string) bool
}

// Middleware enforces runtime limits for tool calls using the Controller.
// It bounds global concurrency, applies an operation timeout to each call,
// and rate-limits admin-tagged tools through the fixed-window limiter.
type Middleware struct {
	ctrl    *Controller
	limiter *safety.AdminRateLimiter
	admin   AdminTagger
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
// The limiter and tagger may be nil to disable admin rate limiting (tests).
func NewMiddleware(ctrl *Controller, limiter *safety.AdminRateLimiter, admin AdminTagger) *Middleware {
	return &Middleware{ctrl: ctrl, limiter: limiter, admin: admin}
}

// ToolMiddleware implements mcp-go's tool handler middleware interface.
// The admin rate gate runs before any capacity is acquired so a denied call
// is cheap; then a request slot is acquired, a timeout applied, and release
// guaranteed.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.Params.Name
		if m.limiter != nil && m.admin != nil {
			if m.admin.IsAdmin(name) && !m.limiter.Allow(name) {
				msg := fmt.Sprintf("RATE_LIMITED: admin operation %q exceeded %d calls per %s. Please retry after the window resets.",
					name, m.limiter.Limit(), m.limiter.Window())
				return mcp.NewToolResultError(msg), nil
			}
		}

		// Attempt to acquire request capacity with a bounded wait.
		acquireCtx := ctx
		if m.ctrl.limits.AcquireRequestTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, m.ctrl.limits.AcquireRequestTimeout)
			defer cancel()
		}

		if err := m.ctrl.AcquireRequest(acquireCtx); err != nil {
			// Return a tool-level error so the client can self-correct/retry.
			msg := fmt.Sprintf("BUSY_RESOURCE: concurrent request limit reached (max=%d). Please retry shortly.", m.ctrl.limits.MaxConcurrentRequests)
			return mcp.NewToolResultError(msg), nil
		}
		defer m.ctrl.ReleaseRequest()

		callCtx := ctx
		cancel := func() {}
		// Apply operation timeout to bound execution time.
		if m.ctrl.limits.OperationTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, m.ctrl.limits.OperationTimeout)
		}
		defer cancel()

		// Delegate to the next handler.
		res, err := next(callCtx, req)

		// If the underlying handler surfaced a context deadline, prefer a tool-level timeout error.
		if err == context.DeadlineExceeded || (callCtx.Err() == context.DeadlineExceeded && err == nil && res == nil) {
			return mcp.NewToolResultError("TIMEOUT: operation exceeded configured time limit"), nil
		}

		return res, err
	}
}
