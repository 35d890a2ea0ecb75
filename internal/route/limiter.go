package route

// limiter.go serializes dispatch.
//
// Grids are read as a snapshot and appended to without any locking, so the
// service processes requests one at a time by default: each dispatch holds a
// slot of a semaphore sized by DISPATCH_MAX_CONCURRENT. When every slot is
// taken, callers wait up to maxWait and then fail with ErrBusy.
//
// WaitForDrain lets shutdown block until in-flight dispatches finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when no dispatch slot frees up within the wait limit.
var ErrBusy = errors.New("dispatch busy, too many requests in flight")

// DefaultMaxConcurrent keeps dispatch single-threaded.
const DefaultMaxConcurrent = 1

// DefaultMaxWait is how long a request waits for a slot before ErrBusy.
const DefaultMaxWait = 30 * time.Second

// Limiter bounds the number of concurrent dispatches with a semaphore.
type Limiter struct {
	semaphore chan struct{}
	maxWait   time.Duration
	metrics   *Metrics

	mu     sync.RWMutex
	active int
}

// NewLimiter allows at most maxConcurrent dispatches at once. Non-positive
// arguments fall back to the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration, m *Metrics) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	return &Limiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		metrics:   m,
	}
}

// Acquire takes a slot, waiting at most maxWait.
// The caller must Release after a nil return.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.adjust(1)
		return nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.metrics.rejected()
		return ErrBusy
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.adjust(1)
		return true
	default:
		return false
	}
}

// Release gives back a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.adjust(-1)
	<-l.semaphore
}

func (l *Limiter) adjust(delta int) {
	l.mu.Lock()
	l.active += delta
	n := l.active
	l.mu.Unlock()
	l.metrics.setInFlight(n)
}

// ActiveCount returns the number of dispatches holding a slot.
func (l *Limiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *Limiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no dispatch holds a slot or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a point-in-time view of the limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the limiter state for health output.
func (l *Limiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
