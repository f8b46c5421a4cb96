package runtime

import (
	"context"
	"time"

	"github.com/vinodismyname/mcpmongo/config"
	"golang.org/x/sync/semaphore"
)

// Limits captures the concurrency and result-size guardrails configured for
// the server.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests int
	MaxConcurrentExports  int

	// Payload and document bounds
	MaxPayloadBytes int
	MaxResultDocs   int
	MaxExportDocs   int

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits with sensible fallbacks when values are unset.
func NewLimits(maxConcurrentRequests, maxConcurrentExports int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxConcurrentExports <= 0 {
		maxConcurrentExports = config.DefaultMaxConcurrentExports
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxConcurrentExports:  maxConcurrentExports,
		MaxPayloadBytes:       config.DefaultMaxPayloadBytes,
		MaxResultDocs:         config.DefaultMaxResultDocs,
		MaxExportDocs:         config.DefaultMaxExportDocs,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// Controller coordinates runtime semaphores for request and export guardrails.
type Controller struct {
	limits           Limits
	requestSemaphore *semaphore.Weighted
	exportSemaphore  *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:           limits,
		requestSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		exportSemaphore:  semaphore.NewWeighted(int64(limits.MaxConcurrentExports)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireExport reserves an export job slot. Exports stream whole collections
// to disk and are bounded separately from ordinary requests.
func (c *Controller) AcquireExport(ctx context.Context) error {
	return c.exportSemaphore.Acquire(ctx, 1)
}

// ReleaseExport frees an export job slot.
func (c *Controller) ReleaseExport() {
	c.exportSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
