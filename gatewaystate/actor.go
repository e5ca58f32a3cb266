package gatewaystate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
)

// updateQueueDepth bounds how far a producer can run ahead of the actor
// before blocking, the same single-producer/single-consumer backpressure
// the source's update queue provides.
const updateQueueDepth = 256

// Actor is the single long-running task that owns the authoritative State.
// It drains Update messages from its queue in arrival order and publishes
// a fresh Snapshot after each drained batch.
type Actor struct {
	log      slog.Logger
	updates  chan Update
	snapshot atomic.Pointer[Snapshot]
	st       *state
}

// NewActor constructs an actor with an empty initial state and publishes
// one empty snapshot immediately, so Snapshot() never returns nil.
func NewActor(log slog.Logger, ttl time.Duration) *Actor {
	a := &Actor{
		log:     log,
		updates: make(chan Update, updateQueueDepth),
		st:      newState(ttl),
	}
	a.snapshot.Store(a.st.snapshot())
	return a
}

// Submit enqueues an update for the actor to process, blocking if the
// queue is full. Safe to call from any number of producer goroutines.
func (a *Actor) Submit(u Update) {
	a.updates <- u
}

// Snapshot returns the most recently published snapshot. Callers may hold
// onto the returned pointer for as long as they like; the actor never
// mutates a snapshot once published, it only replaces the pointer.
func (a *Actor) Snapshot() *Snapshot {
	return a.snapshot.Load()
}

// Run drains updates until ctx is cancelled. Callers should start it with
// the supervised-goroutine spawner (spawn(func() { actor.Run(ctx) })) so a
// panic inside a future Update handler is recovered and logged rather than
// silently killing the actor.
func (a *Actor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-a.updates:
			a.drainBatch(u, time.Now())
		}
	}
}

// drainBatch applies u and every update already queued behind it without
// yielding back to the select loop, then publishes one snapshot for the
// whole batch - "after each batch the actor constructs a new snapshot",
// not after every individual message.
func (a *Actor) drainBatch(first Update, now time.Time) {
	a.st.apply(first, now)
	for {
		select {
		case u := <-a.updates:
			a.st.apply(u, now)
		default:
			a.snapshot.Store(a.st.snapshot())
			return
		}
	}
}
