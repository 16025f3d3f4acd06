package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rs/xid"
)

// Query produces the current result of a logical query ("all events",
// "media for event 3", ...). A live subscription re-runs it after every
// relevant commit. It must be safe to call from the subscription's goroutine
// concurrently with writers — repository reads satisfy this.
type Query[T any] func(ctx context.Context) (T, error)

// Subscription is a standing live query. It emits the current result
// immediately on creation and a fresh snapshot after every commit that could
// have changed it, until Cancel is called. There is no natural end — the
// owner ties the subscription's lifetime to its own (a screen's visibility,
// an SSE request's context).
//
// CONSUMING UPDATES:
// Receive from Updates(). The channel holds at most one snapshot: if the
// consumer lags, a newer snapshot REPLACES the stale buffered one rather than
// queueing behind it. A subscriber that wakes up late sees the latest state,
// which is the only state a UI can render anyway.
type Subscription[T any] struct {
	id      string // xid token, for log correlation only
	updates chan T
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// Watch starts a live subscription on the Bus.
//
// The initial query runs synchronously: the first snapshot is buffered before
// Watch returns, so a subscriber can't miss the current state, and a broken
// query surfaces as an error here rather than as a silently dead stream.
// If the initial query fails, nothing is registered and no goroutine leaks.
//
// Each call creates an independent subscription: its own registry entry, its
// own goroutine, its own channel. Two screens watching "all events" each get
// every delivery, and cancelling one never affects the other.
func Watch[T any](bus *Bus, logger *slog.Logger, query Query[T], topics ...Topic) (*Subscription[T], error) {
	initial, err := query(context.Background())
	if err != nil {
		return nil, err
	}

	s := &Subscription[T]{
		id:      xid.New().String(),
		updates: make(chan T, 1),
		done:    make(chan struct{}),
		logger:  logger,
	}
	s.updates <- initial

	ping, remove := bus.register(topics...)

	go func() {
		// The updates channel is closed here and only here, after the
		// loop stops pushing — closing from Cancel would race with push.
		defer close(s.updates)
		defer remove()
		for {
			select {
			case <-s.done:
				return
			case <-ping:
				snapshot, err := query(context.Background())
				if err != nil {
					// The previous snapshot stands; the next commit
					// pings us again and retries the query.
					s.logger.Error("live query re-run failed",
						slog.String("subscription", s.id),
						slog.String("error", err.Error()),
					)
					continue
				}
				s.push(snapshot)
			}
		}
	}()

	return s, nil
}

// Updates returns the snapshot channel. It is closed after Cancel, so a
// range loop over it terminates cleanly.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// ID returns the subscription's correlation token.
func (s *Subscription[T]) ID() string {
	return s.id
}

// Cancel stops the subscription and unregisters it from the Bus. It is
// idempotent and safe to call from any goroutine; in-flight deliveries to
// other subscriptions are unaffected.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() { close(s.done) })
}

// push delivers a snapshot with latest-wins semantics: if the buffer already
// holds an unconsumed snapshot, drop it and buffer the new one. Only the
// subscription goroutine sends, so the drain-then-send loop cannot livelock;
// a concurrent receive by the consumer just means our send succeeds next try.
func (s *Subscription[T]) push(snapshot T) {
	for {
		select {
		case s.updates <- snapshot:
			return
		default:
			select {
			case <-s.updates: // discard stale snapshot
			default:
			}
		}
	}
}
