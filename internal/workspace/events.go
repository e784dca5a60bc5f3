package workspace

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType names a state change of the workspace.
type EventType string

const (
	EventNoteCreated        EventType = "note.created"
	EventNoteUpdated        EventType = "note.updated"
	EventNoteDeleted        EventType = "note.deleted"
	EventNoteReconciled     EventType = "note.reconciled"
	EventCategoryCreated    EventType = "category.created"
	EventCategoryUpdated    EventType = "category.updated"
	EventCategoryDeleted    EventType = "category.deleted"
	EventCategoryReconciled EventType = "category.reconciled"
	EventFilterReset        EventType = "filter.reset"
	EventPersistenceFailed  EventType = "persistence.failed"
)

// Event is published after the local state has changed. PrevID carries the id
// the entity was known by before (provisional id on reconciliation, the id the
// caller used when it differs from the current one).
type Event struct {
	Type   EventType
	ID     string
	PrevID string
	Op     string
	Err    error
}

// Matches reports whether the event concerns the entity known as id.
func (e Event) Matches(id string) bool {
	return id != "" && (e.ID == id || e.PrevID == id)
}

// Subscriber receives events on Ch until it is unsubscribed. Lagged gets a
// signal whenever an event for this subscriber was dropped; the subscriber
// then has to re-read the state it cares about.
type Subscriber struct {
	ID           ulid.ULID
	SubscribedAt time.Time
	Ch           chan Event
	Lagged       chan struct{}
	Done         chan struct{}
}

// Bus fans workspace events out to subscribers. Publishing never blocks: a
// subscriber with a full buffer loses the event.
type Bus struct {
	mu         sync.RWMutex
	subs       map[ulid.ULID]*Subscriber
	bufferSize int
	dropped    uint64
	log        *slog.Logger
}

// NewBus creates an event bus with the given per-subscriber buffer.
func NewBus(bufferSize int, log *slog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		subs:       make(map[ulid.ULID]*Subscriber),
		bufferSize: bufferSize,
		log:        log,
	}
}

// Subscribe registers a new subscriber and returns it with its cancel func.
func (b *Bus) Subscribe() (*Subscriber, func()) {
	sub := &Subscriber{
		ID:           ulid.Make(),
		SubscribedAt: time.Now(),
		Ch:           make(chan Event, b.bufferSize),
		Lagged:       make(chan struct{}, 1),
		Done:         make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	b.log.Debug("event subscriber added", "sub_id", sub.ID.String())

	return sub, func() { b.Unsubscribe(sub.ID) }
}

// Unsubscribe removes the subscriber and closes its channels. Safe to call twice.
func (b *Bus) Unsubscribe(id ulid.ULID) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(sub.Ch)
		close(sub.Done)
	}
	b.mu.Unlock()

	if ok {
		b.log.Debug("event subscriber removed", "sub_id", id.String())
	}
}

// Publish delivers ev to every subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		sendOrDrop(sub.Ch, ev, func() {
			atomic.AddUint64(&b.dropped, 1)
			select {
			case sub.Lagged <- struct{}{}:
			default:
			}
			b.log.Debug("subscriber buffer full, dropping event", "sub_id", sub.ID.String(), "event_type", ev.Type)
		})
	}
}

// Close unsubscribes everybody.
func (b *Bus) Close() {
	b.mu.RLock()
	ids := make([]ulid.ULID, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	for _, id := range ids {
		b.Unsubscribe(id)
	}
}

// sendOrDrop is the only place that can decide to drop an event.
func sendOrDrop(ch chan Event, ev Event, onDrop func()) {
	select {
	case ch <- ev:
	default:
		onDrop()
	}
}

// Stats returns current counters for observability / tests.
func (b *Bus) Stats() (subscribers int, dropped uint64) {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return n, atomic.LoadUint64(&b.dropped)
}
