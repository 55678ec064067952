package core

// intake_limiter.go bounds how many submissions are processed at once.
//
// The limiter uses a semaphore so a burst of submissions cannot open an
// unbounded number of files and remote connections. When all slots are
// occupied, new submissions wait up to maxWait before failing with
// ErrTooManySubmissions. No slot is held across anything but the owning
// submission's own work, so one slow sink only delays its own request.
//
// WaitForDrain lets graceful shutdown block until in-flight submissions
// have finished writing.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManySubmissions is returned when all intake slots are occupied and
// the wait timeout expires. Clients should retry after a short delay.
var ErrTooManySubmissions = errors.New("too many submissions in progress, please try again later")

// DefaultMaxConcurrentSubmissions is the default limit for parallel submissions.
const DefaultMaxConcurrentSubmissions = 32

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 5 * time.Second

// IntakeLimiter controls concurrent submission processing.
type IntakeLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewIntakeLimiter creates a limiter that allows at most maxConcurrent
// simultaneous submissions.
func NewIntakeLimiter(maxConcurrent int, maxWait time.Duration) *IntakeLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSubmissions
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &IntakeLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire attempts to acquire a slot.
// Returns nil on success, ErrTooManySubmissions if the wait expires.
// The caller MUST call Release() when done (use defer).
func (l *IntakeLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManySubmissions
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire.
func (l *IntakeLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of submissions currently in progress.
func (l *IntakeLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *IntakeLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until all active submissions complete or ctx is done.
func (l *IntakeLimiter) WaitForDrain(ctx context.Context) error {
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

// IntakeLimiterStatus is a snapshot of the limiter's state.
type IntakeLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for health reporting.
func (l *IntakeLimiter) Status() IntakeLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return IntakeLimiterStatus{
		Active:        active,
		Available:     l.Available(),
		MaxConcurrent: cap(l.semaphore),
	}
}
