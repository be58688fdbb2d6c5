package web

// limiter.go implements concurrency control for inventory parsing.
//
// Parsing is the only long operation in the system. A semaphore caps how
// many uploads are parsed at once across all sessions; when every slot
// is occupied, new requests wait up to maxWait before failing with
// ErrTooManyUploads.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyUploads is returned when all parse slots are occupied and
// the wait timeout expires. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

// ingestLimiter caps concurrent inventory parses using a semaphore.
type ingestLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.Mutex
	active int
}

func newIngestLimiter(maxConcurrent int, maxWait time.Duration) *ingestLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}

	return &ingestLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// acquire attempts to take a parse slot. Returns nil on success,
// ErrTooManyUploads if the wait times out. The caller must release()
// after a successful acquire (use defer).
func (l *ingestLimiter) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyUploads
	}
}

// release frees a previously acquired slot.
func (l *ingestLimiter) release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// activeCount returns the number of parses currently in flight.
func (l *ingestLimiter) activeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}
