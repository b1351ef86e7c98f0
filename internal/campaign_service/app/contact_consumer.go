package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
	"github.com/nats-io/nats.go"
)

// ContactEventHandler reacts to one contact lifecycle event.
type ContactEventHandler func(ctx context.Context, contact *domain.Contact) error

// ContactEventConsumer routes contact events to the handlers registered for
// their type. Events without a handler are ignored.
type ContactEventConsumer struct {
	mu       sync.RWMutex
	handlers map[domain.ContactEventType]ContactEventHandler
	logger   *slog.Logger
}

func NewContactEventConsumer(logger *slog.Logger) *ContactEventConsumer {
	return &ContactEventConsumer{
		handlers: make(map[domain.ContactEventType]ContactEventHandler),
		logger:   logger,
	}
}

// Register sets the handler for eventType, replacing any previous one.
func (c *ContactEventConsumer) Register(eventType domain.ContactEventType, h ContactEventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = h
}

// RegisterEnrollment wires the enrollment handlers for both lifecycle events.
func (c *ContactEventConsumer) RegisterEnrollment(e *Enrollment) {
	c.Register(domain.EventContactActivated, e.OnContactActivated)
	c.Register(domain.EventContactDeactivated, e.OnContactDeactivated)
}

// Handle decodes and dispatches one event payload.
func (c *ContactEventConsumer) Handle(ctx context.Context, data []byte) error {
	var event domain.ContactEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode contact event: %w", err)
	}

	c.mu.RLock()
	h, ok := c.handlers[event.Type]
	c.mu.RUnlock()
	if !ok {
		c.logger.DebugContext(ctx, "No handler for contact event", "type", event.Type)
		return nil
	}
	if err := h(ctx, &event.Contact); err != nil {
		return fmt.Errorf("handle %s for contact %s: %w", event.Type, event.Contact.ID, err)
	}
	return nil
}

// NATSHandler adapts Handle to a NATS subscription callback.
func (c *ContactEventConsumer) NATSHandler(ctx context.Context) func(*nats.Msg) {
	return func(msg *nats.Msg) {
		if err := c.Handle(ctx, msg.Data); err != nil {
			c.logger.ErrorContext(ctx, "Failed to process contact event", "subject", msg.Subject, "error", err)
		}
	}
}
