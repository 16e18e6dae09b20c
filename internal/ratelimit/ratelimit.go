// Package ratelimit provides a fixed-window request limiter. It is the
// in-process fallback for the redis counter and the whole story when the
// service runs without redis.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Limiter counts hits per key inside fixed windows. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	windows map[string]*window

	now func() time.Time
}

func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records a hit for key and reports whether it stays within the
// window's limit. A new window opens once the period has elapsed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if w == nil || now.Sub(w.start) >= l.period {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= l.limit
}

// Limit returns the per-window hit budget.
func (l *Limiter) Limit() int { return l.limit }

// Period returns the window length.
func (l *Limiter) Period() time.Duration { return l.period }
