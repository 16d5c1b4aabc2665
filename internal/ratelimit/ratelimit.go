// Package ratelimit implements a per-client fixed-window request counter.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultWindow = 60 * time.Second
	DefaultMax    = 60
	// DefaultMaxClients bounds the window table. When full the least recently
	// seen client is forgotten and starts a fresh window on its next request.
	DefaultMaxClients = 100_000
)

// Options configures a Limiter. Zero values take the defaults.
type Options struct {
	Window     time.Duration
	Max        int
	MaxClients int
	// Now overrides the clock (tests).
	Now func() time.Time
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the client's current window ends.
	Reset time.Time
}

// RetryAfter returns whole seconds until the window resets, at least 1.
func (d Decision) RetryAfter(now time.Time) int {
	s := int(math.Ceil(d.Reset.Sub(now).Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

type window struct {
	count int
	reset time.Time
}

// Limiter counts requests per client key in fixed windows that start at the
// client's first request. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows *expirable.LRU[string, *window]
	window  time.Duration
	max     int
	now     func() time.Time
}

// New creates a Limiter.
func New(opts Options) *Limiter {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Max <= 0 {
		opts.Max = DefaultMax
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = DefaultMaxClients
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Limiter{
		windows: expirable.NewLRU[string, *window](opts.MaxClients, nil, opts.Window),
		window:  opts.Window,
		max:     opts.Max,
		now:     opts.Now,
	}
}

// Allow records one request for key and reports whether it is within quota.
// Rejected requests still count against the window.
func (l *Limiter) Allow(key string) Decision {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows.Get(key)
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(l.window)}
		l.windows.Add(key, w)
	}
	w.count++
	remaining := l.max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   w.count <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		Reset:     w.reset,
	}
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Reset forgets every client.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.windows.Purge()
	l.mu.Unlock()
}
