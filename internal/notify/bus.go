package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Event is what listeners receive.
type Event struct {
	Topic   string
	Payload string
	At      time.Time
}

// Listener handles an event on the scheduler's context.
type Listener func(Event)

// Scheduler runs fn on the context listeners expect, for example the GTK
// main loop. It must not block.
type Scheduler func(fn func())

// Bus is an in-process Sink that dispatches events to topic listeners.
// Listeners run on the scheduler, so a UI listener never runs on the
// watcher goroutine.
type Bus struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	listeners map[string]map[uint64]Listener
	nextID    uint64
	schedule  Scheduler
}

// NewBus creates a Bus. A nil scheduler calls listeners synchronously.
func NewBus(schedule Scheduler, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == nil {
		schedule = func(fn func()) { fn() }
	}
	return &Bus{
		logger:    logger,
		listeners: make(map[string]map[uint64]Listener),
		schedule:  schedule,
	}
}

// Subscribe registers a listener for topic and returns a function that
// removes it.
func (b *Bus) Subscribe(topic string, l Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.listeners[topic] == nil {
		b.listeners[topic] = make(map[uint64]Listener)
	}
	b.listeners[topic][id] = l

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners[topic], id)
		if len(b.listeners[topic]) == 0 {
			delete(b.listeners, topic)
		}
	}
}

// ListenerCount returns the number of listeners on topic.
func (b *Bus) ListenerCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[topic])
}

// Emit implements Sink. Listeners are invoked on the scheduler; Emit itself
// returns as soon as the handoff is queued.
func (b *Bus) Emit(topic, payload string) error {
	if err := CheckPayload(topic, payload); err != nil {
		return err
	}

	b.mu.RLock()
	targets := make([]Listener, 0, len(b.listeners[topic]))
	for _, l := range b.listeners[topic] {
		targets = append(targets, l)
	}
	b.mu.RUnlock()

	if len(targets) == 0 {
		return NoListener(topic, payload)
	}

	ev := Event{Topic: topic, Payload: payload, At: time.Now()}
	b.schedule(func() {
		for _, l := range targets {
			l(ev)
		}
	})

	b.logger.Debug("event emitted", "topic", topic, "listeners", len(targets))
	return nil
}
