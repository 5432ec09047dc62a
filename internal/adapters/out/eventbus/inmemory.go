// Package eventbus implements the event bus adapter.
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/gatekeeper/internal/boundaries/out"
	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

const (
	publishTimeout = 5 * time.Second
	handlerTimeout = 30 * time.Second
)

// InMemory implements the EventBus interface using in-memory channels.
// Events are delivered to handlers in publish order by a single goroutine.
type InMemory struct {
	handlers   []out.EventHandler
	eventChan  chan domain.Event
	done       chan struct{}
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	bufferSize int
	started    bool
	log        logging.Logger
}

// NewInMemory creates a new in-memory event bus.
func NewInMemory(bufferSize int, log logging.Logger) *InMemory {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &InMemory{
		handlers:   make([]out.EventHandler, 0),
		eventChan:  make(chan domain.Event, bufferSize),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		bufferSize: bufferSize,
		log:        log,
	}
}

// Publish publishes an event to the bus.
func (bus *InMemory) Publish(eventType domain.EventType, payload any) error {
	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      payload,
	}

	entityID := ""
	if p, ok := payload.(domain.PackageEventPayload); ok {
		entityID = p.Record.ServiceUUID
	}

	select {
	case bus.eventChan <- event:
		bus.log.Debug().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "eventbus").
			Str("event_id", event.ID).
			Str(logging.FieldEvent, string(event.Type)).
			Str(logging.FieldEntityID, entityID).
			Msg("event published")
		return nil
	case <-bus.ctx.Done():
		return fmt.Errorf("event bus is stopped")
	case <-time.After(publishTimeout):
		bus.log.Error().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "eventbus").
			Str("event_id", event.ID).
			Str(logging.FieldEvent, string(event.Type)).
			Str(logging.FieldEntityID, entityID).
			Msg("event channel is full, dropping event")
		return fmt.Errorf("event channel is full, dropping event %s", event.ID)
	}
}

// Subscribe adds an event handler to the bus.
func (bus *InMemory) Subscribe(handler out.EventHandler) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.handlers = append(bus.handlers, handler)
	bus.log.Debug().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "eventbus").
		Str(logging.FieldHandler, fmt.Sprintf("%T", handler)).
		Int("total_handlers", len(bus.handlers)).
		Msg("event handler subscribed")

	return nil
}

// Unsubscribe removes an event handler from the bus.
func (bus *InMemory) Unsubscribe(handler out.EventHandler) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for i, h := range bus.handlers {
		if h == handler {
			bus.handlers = append(bus.handlers[:i], bus.handlers[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("handler not found")
}

// Start starts the event bus processing loop.
func (bus *InMemory) Start() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.started {
		return fmt.Errorf("event bus already started")
	}
	bus.started = true

	bus.log.Info().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "eventbus").
		Int("buffer_size", bus.bufferSize).
		Msg("starting event bus")

	go bus.processEvents()
	return nil
}

// Stop delivers the events already queued, then stops the bus.
func (bus *InMemory) Stop() error {
	bus.mu.RLock()
	started := bus.started
	bus.mu.RUnlock()

	bus.cancel()
	if !started {
		return nil
	}

	select {
	case <-bus.done:
		bus.log.Info().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "eventbus").
			Msg("event bus stopped")
		return nil
	case <-time.After(publishTimeout):
		bus.log.Warn().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "eventbus").
			Msg("event bus stop timeout")
		return fmt.Errorf("timeout waiting for event bus to stop")
	}
}

func (bus *InMemory) processEvents() {
	defer close(bus.done)

	for {
		select {
		case event := <-bus.eventChan:
			bus.handleEvent(event)
		case <-bus.ctx.Done():
			bus.drain()
			return
		}
	}
}

// drain handles whatever is still buffered when the bus stops.
func (bus *InMemory) drain() {
	for {
		select {
		case event := <-bus.eventChan:
			bus.handleEvent(event)
		default:
			return
		}
	}
}

func (bus *InMemory) handleEvent(event domain.Event) {
	bus.mu.RLock()
	handlers := make([]out.EventHandler, len(bus.handlers))
	copy(handlers, bus.handlers)
	bus.mu.RUnlock()

	for _, h := range handlers {
		if !h.CanHandle(event.Type) {
			continue
		}

		start := time.Now()
		// handlers run detached from the bus lifecycle so draining on Stop
		// still completes
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		err := h.Handle(ctx, event)
		cancel()

		if err != nil {
			bus.log.Error().
				Str(logging.FieldLayer, "adapter").
				Str(logging.FieldAdapter, "eventbus").
				Err(err).
				Str("event_id", event.ID).
				Str(logging.FieldEvent, string(event.Type)).
				Str(logging.FieldHandler, fmt.Sprintf("%T", h)).
				Msg("error handling event")
			continue
		}

		bus.log.Debug().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "eventbus").
			Str("event_id", event.ID).
			Str(logging.FieldEvent, string(event.Type)).
			Str(logging.FieldHandler, fmt.Sprintf("%T", h)).
			Dur(logging.FieldDuration, time.Since(start)).
			Msg("event handled")
	}
}
