package remote

import (
	"sync"
	"time"

	"botsift/internal/observability"
)

const (
	defaultPerMinute = 59
	hourlyCeiling    = 1700

	// Extra sleep past the window rollover so the next window is clearly open.
	rolloverBuffer = 2 * time.Second
)

// RateLimiter paces outbound requests under a fixed per-minute quota.
// It counts requests inside the current minute window; when the quota is
// reached, Acquire sleeps until the window rolls over and starts a fresh
// count. The hourly total is tracked for visibility only.
//
// Acquire-and-increment is atomic under the mutex, so concurrent fan-out
// cannot overshoot the quota. Callers queue in FIFO arrival order.
type RateLimiter struct {
	mu sync.Mutex

	perMinute   int
	minuteStart time.Time
	minuteCount int
	hourStart   time.Time
	hourCount   int

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRateLimiter creates a limiter allowing perMinute requests per rolling
// minute. Zero or negative means the default of 59, which leaves headroom
// under a 60/min platform quota.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	return &RateLimiter{
		perMinute: perMinute,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Acquire blocks until one more request may be issued.
func (l *RateLimiter) Acquire() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if l.minuteStart.IsZero() {
		l.minuteStart = now
		l.hourStart = now
	}

	if now.Sub(l.minuteStart) >= time.Minute {
		l.minuteStart = now
		l.minuteCount = 0
	}
	if now.Sub(l.hourStart) >= time.Hour {
		l.hourStart = now
		l.hourCount = 0
	}

	if l.minuteCount >= l.perMinute {
		wait := time.Minute - now.Sub(l.minuteStart) + rolloverBuffer
		observability.Logger().Warn("request quota reached, pausing",
			"count", l.minuteCount, "wait", wait.String())
		l.sleep(wait)
		l.minuteStart = l.now()
		l.minuteCount = 0
	}

	l.minuteCount++
	l.hourCount++

	if l.hourCount > hourlyCeiling {
		observability.Logger().Warn("hourly request count above ceiling",
			"count", l.hourCount, "ceiling", hourlyCeiling)
	}
}
