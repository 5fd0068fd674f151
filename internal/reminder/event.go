// Package reminder turns due medication records into notifications and
// push payloads.
package reminder

import (
	"sync"
	"time"
)

// ReminderEvent describes a medication that has come due.
type ReminderEvent struct {
	MedicationID   uint
	PetID          uint
	PetName        string
	MedicationName string
	Dosage         string
	DueAt          time.Time
	Timestamp      time.Time
}

// EventHandler processes reminder events.
type EventHandler func(event *ReminderEvent)

// Package-level singleton for the reminder event bus.
var (
	globalBus *EventBus
	busMu     sync.RWMutex
)

// SetGlobalBus sets the package-level reminder event bus singleton.
// Called during initialization.
func SetGlobalBus(bus *EventBus) {
	busMu.Lock()
	defer busMu.Unlock()
	globalBus = bus
}

// GetGlobalBus returns the package-level event bus, or nil if not initialized.
func GetGlobalBus() *EventBus {
	busMu.RLock()
	defer busMu.RUnlock()
	return globalBus
}

// TryPublish publishes an event to the global bus if initialized.
// Returns false if the bus is not yet available.
func TryPublish(event *ReminderEvent) bool {
	bus := GetGlobalBus()
	if bus == nil {
		return false
	}
	bus.Publish(event)
	return true
}

const (
	// eventBusBufferSize is the capacity of the async event channel.
	// Events are dropped if the buffer is full to avoid blocking callers.
	eventBusBufferSize = 256
)

// EventBus is an async pub/sub for reminder events. Publish is
// non-blocking: events go to a buffered channel and are processed by a
// worker goroutine, so the scheduler is never blocked by notification
// dispatch or DB writes.
type EventBus struct {
	handlers []EventHandler
	mu       sync.RWMutex
	eventCh  chan *ReminderEvent
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewEventBus creates a new event bus and starts its worker.
func NewEventBus() *EventBus {
	b := &EventBus{
		handlers: make([]EventHandler, 0),
		eventCh:  make(chan *ReminderEvent, eventBusBufferSize),
		stopCh:   make(chan struct{}),
	}
	go b.processLoop()
	return b
}

// Subscribe registers a handler for reminder events.
func (b *EventBus) Subscribe(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish enqueues an event for async processing. Non-blocking: if the
// buffer is full the event is dropped. Events are silently dropped
// after Stop() has been called.
func (b *EventBus) Publish(event *ReminderEvent) {
	select {
	case <-b.stopCh:
		return
	default:
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	default:
		// Buffer full, drop the event.
	}
}

// Stop shuts down the worker goroutine. Safe to call multiple times.
func (b *EventBus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

// processLoop drains the event channel and dispatches to handlers.
func (b *EventBus) processLoop() {
	for {
		select {
		case event := <-b.eventCh:
			b.dispatch(event)
		case <-b.stopCh:
			// Drain remaining events before exiting
			for {
				select {
				case event := <-b.eventCh:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *EventBus) dispatch(event *ReminderEvent) {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeCall(handler, event)
	}
}

// safeCall invokes a handler with panic recovery so a panicking handler
// cannot kill the event bus goroutine.
func (b *EventBus) safeCall(handler EventHandler, event *ReminderEvent) {
	defer func() {
		// Swallow panics to keep the bus alive. The handler is expected
		// to do its own logging.
		recover() //nolint:errcheck // intentionally swallowed to keep bus alive
	}()
	handler(event)
}
