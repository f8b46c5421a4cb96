package config

import "time"

// Default runtime limits and guardrails for the MCP MongoDB Server.
// These values are conservative and can be overridden by future configuration
// mechanisms (env, CLI, or files). They are referenced by internal/runtime
// and internal/safety.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxConcurrentExports  = 2

	// Payload and document limits
	DefaultMaxPayloadBytes  = 128 * 1024 // 128KB
	DefaultMaxResultDocs    = 100
	DefaultMaxExportDocs    = 10_000
	DefaultFindPageSize     = 20
	DefaultProfilerEntryCap = 50
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
	DefaultConnectTimeout        = 10 * time.Second
	DefaultPingTimeout           = 2 * time.Second
)

const (
	// Admin rate limiting (fixed window per operation name)
	DefaultAdminRateLimit  = 100
	DefaultAdminRateWindow = 60 * time.Second
)

// DefaultVerbosity is the stats verbosity tier applied when the caller does
// not select one; minimal keeps responses small for model context windows.
const DefaultVerbosity = "minimal"
