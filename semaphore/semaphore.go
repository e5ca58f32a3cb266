// Package semaphore provides a counting semaphore for bounding
// concurrent access to a shared, rate-sensitive resource such as an IPFS
// client. No other package of the gateway imports it.
package semaphore

import "context"

// Semaphore is a channel-based counting semaphore: the classic Go idiom
// for bounding concurrency (a buffered channel used as a token bucket)
// rather than a condition-variable-based implementation.
type Semaphore struct {
	tokens chan struct{}
}

// New returns a Semaphore with max concurrent permits available.
func New(max int) *Semaphore {
	if max < 1 {
		max = 1
	}
	return &Semaphore{tokens: make(chan struct{}, max)}
}

// Acquire blocks until a permit is available or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.tokens <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit to the pool. Calling Release without a matching
// successful Acquire is a programming error.
func (s *Semaphore) Release() {
	<-s.tokens
}

// TryAcquire acquires a permit without blocking, reporting whether one was
// available.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.tokens <- struct{}{}:
		return true
	default:
		return false
	}
}
