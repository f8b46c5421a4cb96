package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/mcpmongo/internal/safety"
)

type staticAdminSet []string

func (s staticAdminSet) IsAdmin(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

func callRequest(tool string) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = tool
	return req
}

func TestMiddleware_AllowsWhenCapacity(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.OperationTimeout = 200 * time.Millisecond
	limits.AcquireRequestTimeout = 50 * time.Millisecond

	ctrl := NewController(limits)
	mw := NewMiddleware(ctrl, nil, nil)

	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := mw.ToolMiddleware(server.ToolHandlerFunc(next))

	res, err := wrapped(context.Background(), callRequest("find_documents"))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.False(t, res.IsError)
}

func TestMiddleware_BusyWhenSaturated(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.AcquireRequestTimeout = 10 * time.Millisecond

	ctrl := NewController(limits)
	// Saturate the request semaphore.
	require.NoError(t, ctrl.AcquireRequest(context.Background()))
	defer ctrl.ReleaseRequest()

	mw := NewMiddleware(ctrl, nil, nil)

	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.Fatal("next should not be called when saturated")
		return nil, nil
	}

	wrapped := mw.ToolMiddleware(server.ToolHandlerFunc(next))

	res, err := wrapped(context.Background(), callRequest("find_documents"))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.True(t, res.IsError)
}

func TestMiddleware_TimeoutApplied(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.OperationTimeout = 20 * time.Millisecond
	limits.AcquireRequestTimeout = 20 * time.Millisecond

	ctrl := NewController(limits)
	mw := NewMiddleware(ctrl, nil, nil)

	// This handler only returns when the context is done.
	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	wrapped := mw.ToolMiddleware(server.ToolHandlerFunc(next))

	res, err := wrapped(context.Background(), callRequest("find_documents"))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.True(t, res.IsError)
}

func TestMiddleware_AdminRateLimited(t *testing.T) {
	limits := NewLimits(4, 1)
	ctrl := NewController(limits)

	now := time.Unix(1700000000, 0)
	limiter := safety.NewAdminRateLimiter(2, time.Minute, func() time.Time { return now })
	mw := NewMiddleware(ctrl, limiter, staticAdminSet{"drop_collection"})

	calls := 0
	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		calls++
		return mcp.NewToolResultText("ok"), nil
	}
	wrapped := mw.ToolMiddleware(server.ToolHandlerFunc(next))

	for i := 0; i < 2; i++ {
		res, err := wrapped(context.Background(), callRequest("drop_collection"))
		require.NoError(t, err)
		require.False(t, res.IsError)
	}

	res, err := wrapped(context.Background(), callRequest("drop_collection"))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Equal(t, 2, calls)

	// Non-admin tools are never rate limited.
	res, err = wrapped(context.Background(), callRequest("find_documents"))
	require.NoError(t, err)
	require.False(t, res.IsError)
}
