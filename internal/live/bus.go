// Package live is the reactive query layer: it turns committed storage
// mutations into continuously-updated snapshots pushed to subscribers.
//
// HOW IT FITS TOGETHER:
// The storage engine publishes a change notification on the Bus after every
// commit. Each live query (see Watch in subscription.go) registers a watcher
// on the topics that could affect its result; when pinged, it re-runs its
// query and pushes the fresh snapshot to its subscriber. The UI collaborator
// never polls — invalidation is centralised here instead of scattering
// re-query calls across screens.
//
// DELIVERY GUARANTEES (the part worth reading twice):
//   - A publisher NEVER blocks on a subscriber. Pings go through a buffered(1)
//     channel with a non-blocking send: if a ping is already pending, the new
//     one coalesces into it.
//   - Coalescing cannot lose the final state. A watcher re-runs its query
//     AFTER consuming the ping, so whatever it reads reflects at least the
//     last commit that pinged it. Intermediate states may be skipped; the
//     post-mutation state never is.
//   - Emissions for one subscriber arrive in commit order (a single goroutine
//     re-runs the query). Nothing is promised across different queries.
package live

import "sync"

// Topic identifies a class of storage changes a watcher can care about.
//
// WHY ONLY TWO COARSE TOPICS?
// Watchers re-run their own query when pinged, so an overly-broad ping costs
// at most one redundant identical emission — it can never cause a wrong or
// missed one. Per-row topics would save a few re-queries on a dataset that is
// one person's journal; not worth the bookkeeping.
type Topic string

const (
	// TopicEvents fires on any event insert/update/delete.
	TopicEvents Topic = "events"
	// TopicMedia fires on any media insert/delete, including rows removed
	// by an event's cascade delete.
	TopicMedia Topic = "media"
)

// Bus is the registry of active query-watchers. The storage engine holds one
// Bus for its lifetime and publishes to it after each commit; subscriptions
// register and unregister themselves as UI screens come and go.
//
// The zero value is not usable — create one with NewBus.
type Bus struct {
	mu       sync.Mutex
	watchers map[Topic]map[int]chan<- struct{}
	nextID   int
}

// NewBus creates an empty watcher registry.
func NewBus() *Bus {
	return &Bus{watchers: make(map[Topic]map[int]chan<- struct{})}
}

// Publish pings every watcher registered on any of the given topics.
// It must be called only AFTER the triggering mutation has committed,
// so a woken watcher always reads post-commit state.
//
// The send is non-blocking: each watcher's ping channel has capacity 1, and
// if a ping is already pending we simply skip — the watcher will observe the
// newest state when it gets around to re-running its query. This is what
// keeps slow subscribers from ever stalling a writer.
func (b *Bus) Publish(topics ...Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topic := range topics {
		for _, ping := range b.watchers[topic] {
			select {
			case ping <- struct{}{}:
			default: // ping already pending — coalesce
			}
		}
	}
}

// register adds a watcher for the given topics and returns its ping channel
// plus a removal func. Removal is idempotent and affects no other watcher.
func (b *Bus) register(topics ...Topic) (<-chan struct{}, func()) {
	ping := make(chan struct{}, 1)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	for _, topic := range topics {
		m := b.watchers[topic]
		if m == nil {
			m = make(map[int]chan<- struct{})
			b.watchers[topic] = m
		}
		m[id] = ping
	}
	b.mu.Unlock()

	remove := func() {
		b.mu.Lock()
		for _, topic := range topics {
			delete(b.watchers[topic], id)
		}
		b.mu.Unlock()
	}
	return ping, remove
}

// watcherCount reports how many watchers are registered on a topic.
// Used by tests to verify cancellation releases registry entries.
func (b *Bus) watcherCount(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watchers[topic])
}
