package rate

import (
	"sync"
	"time"
)

// WindowLimiter allows at most limit events per key per fixed window.
// Used to throttle login attempts per client address.
type WindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[string]int
	starts map[string]time.Time
}

// NewWindowLimiter creates window limiter.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:  limit,
		window: window,
		counts: make(map[string]int),
		starts: make(map[string]time.Time),
	}
}

// Allow handles internal allow behavior.
func (l *WindowLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	start, ok := l.starts[key]
	if !ok || now.Sub(start) >= l.window {
		l.sweep(now)
		l.starts[key] = now
		l.counts[key] = 1
		return true
	}
	if l.counts[key] >= l.limit {
		return false
	}
	l.counts[key]++
	return true
}

// sweep drops expired windows; called with the lock held.
func (l *WindowLimiter) sweep(now time.Time) {
	for key, start := range l.starts {
		if now.Sub(start) >= l.window {
			delete(l.starts, key)
			delete(l.counts, key)
		}
	}
}
