package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// subscription is one consumer: a buffered channel and the events it wants.
type subscription struct {
	ch      chan Event
	match   func(Event) bool // nil matches everything
	dropped atomic.Uint64
}

// offer delivers e without blocking. When the buffer is full the oldest
// queued event is evicted so the consumer always sees the latest state.
// It reports whether an event was lost.
func (s *subscription) offer(e Event) bool {
	select {
	case s.ch <- e:
		return false
	default:
	}

	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- e:
	default:
		// Lost a race with another publisher for the freed slot.
	}
	s.dropped.Add(1)
	return true
}

// Bus fans events out to subscribers and, when a log is attached, persists
// them first. Publishing never blocks on a slow subscriber.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    *EventLog // may be nil
	logger *slog.Logger
	closed bool
}

// NewBus creates a new event bus.
// The EventLog is optional - pass nil to disable persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{log: log, logger: logger}
}

// Publish persists e and offers it to every matching subscriber.
// Callers publishing after a committed write should pass a context that
// outlives the request; Publish itself does not abort on cancellation.
func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	if b.log != nil {
		if _, err := b.log.Append(e); err != nil {
			b.logger.Error("persist event failed", "type", e.EventType(), "entity_id", e.EntityID(), "error", err)
		}
	}

	for _, s := range b.subs {
		if s.match != nil && !s.match(e) {
			continue
		}
		if s.offer(e) {
			b.logger.Warn("subscriber backlog full, evicted oldest event",
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID(),
				"dropped_total", s.dropped.Load())
		}
	}
	return nil
}

func (b *Bus) subscribe(bufferSize int, match func(Event) bool) <-chan Event {
	if bufferSize < 1 {
		bufferSize = 1
	}
	s := &subscription{ch: make(chan Event, bufferSize), match: match}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s.ch
	}
	b.subs = append(b.subs, s)
	return s.ch
}

// Subscribe returns a channel for events of a specific type.
func (b *Bus) Subscribe(eventType string, bufferSize int) <-chan Event {
	return b.subscribe(bufferSize, func(e Event) bool { return e.EventType() == eventType })
}

// SubscribeAll returns a channel for all events.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	return b.subscribe(bufferSize, nil)
}

// SubscribeEntity returns events for one entity.
func (b *Bus) SubscribeEntity(entityType, entityID string, bufferSize int) <-chan Event {
	return b.subscribe(bufferSize, func(e Event) bool {
		return e.EntityType() == entityType && e.EntityID() == entityID
	})
}

// SubscribeMovies returns every event about a catalog movie.
func (b *Bus) SubscribeMovies(bufferSize int) <-chan Event {
	return b.subscribe(bufferSize, func(e Event) bool { return e.EntityType() == EntityMovie })
}

// Dropped returns how many events ch has lost to a full buffer.
func (b *Bus) Dropped(ch <-chan Event) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.ch == ch {
			return s.dropped.Load()
		}
	}
	return 0
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
