// Package messaging implements the in-memory event bus the progress engine
// publishes domain events on. The engine uses synchronous dispatch: handlers
// run to completion in registration order on the publishing goroutine, which
// keeps the reactive achievement pass and the opportunistic sync trigger
// ordered and auditable.
package messaging

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
)

// ErrEventBusClosed is returned when publishing or subscribing after Close.
var ErrEventBusClosed = errors.New("event bus is closed")

// EventBus publishes domain events to subscribed handlers.
type EventBus interface {
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
	SubscribeAll(handler shared.EventHandler) error
	Publish(event shared.Event) error
	Close() error
}

// InMemoryEventBus is a synchronous in-memory EventBus. Handler errors are
// logged, never propagated: a failing notification must not break gameplay.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	logger      *slog.Logger
	closed      bool
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(logger *slog.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventBus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("subscribed handler", "handler", handler.Name(), "event_type", eventType)
	return nil
}

// SubscribeAll registers a handler for every event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	b.logger.Debug("subscribed global handler", "handler", handler.Name())
	return nil
}

// Publish delivers the event to all matching handlers in order.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0,
		len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(event); err != nil {
			b.logger.Error("event handler failed",
				"handler", handler.Name(),
				"event_type", event.EventType(),
				"error", err)
		}
	}
	return nil
}

// Close shuts the bus down; further publishes fail.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc struct {
	HandlerName string
	Fn          func(event shared.Event) error
}

// Handle implements shared.EventHandler.
func (h HandlerFunc) Handle(event shared.Event) error { return h.Fn(event) }

// Name implements shared.EventHandler.
func (h HandlerFunc) Name() string { return h.HandlerName }
