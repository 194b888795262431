// Package ratelimit provides token-bucket rate limiting for inbound
// task submissions and outbound Slack API calls.
package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// Common errors.
var (
	ErrClosed          = errors.New("limiter closed")
	ErrResourceUnknown = errors.New("unknown resource")
)

// Well-known resource names.
const (
	ResourceTaskSubmit = "tasks.submit"
	ResourceSlackAPI   = "slack.api"
)

// bucket is a token bucket refilled continuously over its window.
type bucket struct {
	capacity   int
	available  int
	window     time.Duration
	lastRefill time.Time
}

func (b *bucket) refill(now time.Time) {
	if b.window == 0 || b.capacity == 0 {
		return
	}
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}
	tokensToAdd := int(float64(b.capacity) * float64(elapsed) / float64(b.window))
	if tokensToAdd > 0 {
		b.available += tokensToAdd
		if b.available > b.capacity {
			b.available = b.capacity
		}
		b.lastRefill = now
	}
}

// Capacity describes the current state of one resource's bucket.
type Capacity struct {
	Resource  string
	Available int
	Total     int
	Window    time.Duration
}

// Limiter is an in-memory token-bucket rate limiter.
// Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	closed  bool
	nowFunc func() time.Time // for testing
}

// NewLimiter creates an empty limiter. Resources must be configured
// with SetCapacity before they limit anything.
func NewLimiter() *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		nowFunc: time.Now,
	}
}

// SetCapacity configures a resource to allow capacity requests per
// window. Zero or negative capacity removes the resource.
func (l *Limiter) SetCapacity(resource string, capacity int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if capacity <= 0 || window <= 0 {
		delete(l.buckets, resource)
		return
	}

	if b, exists := l.buckets[resource]; exists {
		b.capacity = capacity
		b.window = window
		if b.available > capacity {
			b.available = capacity
		}
		return
	}
	l.buckets[resource] = &bucket{
		capacity:   capacity,
		available:  capacity, // start full
		window:     window,
		lastRefill: l.nowFunc(),
	}
}

// GetCapacity returns the current state for a resource, or nil if the
// resource is unknown.
func (l *Limiter) GetCapacity(resource string) *Capacity {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[resource]
	if !exists {
		return nil
	}
	b.refill(l.nowFunc())

	return &Capacity{
		Resource:  resource,
		Available: b.available,
		Total:     b.capacity,
		Window:    b.window,
	}
}

// TryAcquire takes a token without blocking. Unknown resources are
// unlimited and always succeed.
func (l *Limiter) TryAcquire(resource string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	b, exists := l.buckets[resource]
	if !exists {
		return true
	}

	b.refill(l.nowFunc())
	if b.available > 0 {
		b.available--
		return true
	}
	return false
}

// Acquire blocks until a token is available or the context ends.
func (l *Limiter) Acquire(ctx context.Context, resource string) error {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return ErrClosed
		}
		b, exists := l.buckets[resource]
		if !exists {
			l.mu.Unlock()
			return nil
		}
		b.refill(l.nowFunc())
		if b.available > 0 {
			b.available--
			l.mu.Unlock()
			return nil
		}
		// Wait roughly one token's worth of refill time.
		wait := b.window / time.Duration(b.capacity)
		l.mu.Unlock()

		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Close shuts down the limiter. Subsequent acquires fail.
func (l *Limiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Middleware returns an HTTP middleware that rejects requests with 429
// when the resource's bucket is empty.
func (l *Limiter) Middleware(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.TryAcquire(resource) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
