package safety

import (
	"sync"
	"time"

	"github.com/vinodismyname/mcpmongo/config"
)

// window is the fixed-window record kept per operation name.
type window struct {
	count     int
	resetTime time.Time
}

// AdminRateLimiter bounds the call rate of administrative operations with a
// fixed window per operation name. Instances own their state and are passed
// explicitly to callers; there is no package-level singleton. Stale keys are
// never evicted, so the map grows with the distinct operation-name
// cardinality for the process lifetime.
type AdminRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	clock   func() time.Time
}

// NewAdminRateLimiter constructs a limiter allowing limit calls per period
// for each operation name. Non-positive arguments fall back to the
// configured defaults; clock may be nil and defaults to time.Now.
func NewAdminRateLimiter(limit int, period time.Duration, clock func() time.Time) *AdminRateLimiter {
	if limit <= 0 {
		limit = config.DefaultAdminRateLimit
	}
	if period <= 0 {
		period = config.DefaultAdminRateWindow
	}
	if clock == nil {
		clock = time.Now
	}
	return &AdminRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		clock:   clock,
	}
}

// Allow reports whether one more call of operation fits in the current
// window. The check-then-increment sequence is atomic under the limiter's
// mutex, so concurrent callers cannot both slip past the limit. The window
// resets lazily on the first call after it elapses; a denial does not mutate
// state.
func (l *AdminRateLimiter) Allow(operation string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	w, ok := l.windows[operation]
	if !ok {
		w = &window{resetTime: now.Add(l.period)}
		l.windows[operation] = w
	}
	if now.After(w.resetTime) {
		w.count = 0
		w.resetTime = now.Add(l.period)
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Limit exposes the configured per-window call budget.
func (l *AdminRateLimiter) Limit() int { return l.limit }

// Window exposes the configured window length.
func (l *AdminRateLimiter) Window() time.Duration { return l.period }
