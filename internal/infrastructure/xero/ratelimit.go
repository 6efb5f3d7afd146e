package xero

import (
	"context"
	"sync"
	"time"
)

// TenantLimiter enforces the per-tenant request budget on the client side so
// sync sessions rarely hit the provider's 429 responses. Fixed one-minute
// windows keyed by tenant.
type TenantLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*windowCounter
	now      func() time.Time
}

type windowCounter struct {
	windowStart time.Time
	count       int
}

// NewTenantLimiter creates a limiter allowing limit requests per window
func NewTenantLimiter(limit int, window time.Duration) *TenantLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &TenantLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

// Acquire blocks until a request slot is available for the tenant or the
// context is cancelled. It never returns an error other than ctx.Err().
func (l *TenantLimiter) Acquire(ctx context.Context, tenantID string) error {
	for {
		wait, ok := l.tryAcquire(tenantID)
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire takes a slot if one is free, otherwise returns how long to wait
// before the current window resets.
func (l *TenantLimiter) tryAcquire(tenantID string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[tenantID]
	if !ok || now.Sub(c.windowStart) >= l.window {
		l.counters[tenantID] = &windowCounter{windowStart: now, count: 1}
		return 0, true
	}
	if c.count < l.limit {
		c.count++
		return 0, true
	}
	return c.windowStart.Add(l.window).Sub(now), false
}

// Remaining reports how many slots are left in the tenant's current window
func (l *TenantLimiter) Remaining(tenantID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[tenantID]
	if !ok || l.now().Sub(c.windowStart) >= l.window {
		return l.limit
	}
	return l.limit - c.count
}
