package courier

import (
	"context"
	"fmt"
	"time"

	"github.com/rbaliyan/event/v3"
)

// Event names for mailer events.
const (
	EventNameMessageComposed  = "courier.message.composed"
	EventNameMessageDelivered = "courier.message.delivered"
	EventNameDeliveryFailed   = "courier.delivery.failed"
)

// MessageComposedEvent is published when an action is composed into a
// message.
type MessageComposedEvent struct {
	Action     string    `json:"action"`
	Subject    string    `json:"subject"`
	Recipients []string  `json:"recipients"`
	ComposedAt time.Time `json:"composed_at"`
}

// MessageDeliveredEvent is published when a message is successfully
// handed to its transport.
type MessageDeliveredEvent struct {
	MessageID   string    `json:"message_id"`
	Transport   string    `json:"transport"`
	Recipients  []string  `json:"recipients"`
	Subject     string    `json:"subject"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// DeliveryFailedEvent is published when a transport reports a delivery
// failure, regardless of whether the error is surfaced to the caller.
type DeliveryFailedEvent struct {
	Transport string    `json:"transport"`
	Subject   string    `json:"subject"`
	Error     string    `json:"error"`
	FailedAt  time.Time `json:"failed_at"`
}

// MailerEvents provides access to per-mailer event instances.
// Each mailer creates its own events bound to its own event bus,
// enabling independent event routing and parallel testing.
//
// Subscribe to events:
//
//	m.Events().MessageComposed.Subscribe(ctx, handler)
//	m.Events().MessageDelivered.Subscribe(ctx, handler)
//	m.Events().DeliveryFailed.Subscribe(ctx, handler)
type MailerEvents struct {
	// MessageComposed is published when an action is composed.
	MessageComposed event.Event[MessageComposedEvent]

	// MessageDelivered is published after a successful delivery.
	MessageDelivered event.Event[MessageDeliveredEvent]

	// DeliveryFailed is published when a transport reports an error.
	DeliveryFailed event.Event[DeliveryFailedEvent]
}

// newMailerEvents creates per-mailer event instances with a unique name prefix.
func newMailerEvents(namePrefix string) *MailerEvents {
	return &MailerEvents{
		MessageComposed:  event.New[MessageComposedEvent](namePrefix + "." + EventNameMessageComposed),
		MessageDelivered: event.New[MessageDeliveredEvent](namePrefix + "." + EventNameMessageDelivered),
		DeliveryFailed:   event.New[DeliveryFailedEvent](namePrefix + "." + EventNameDeliveryFailed),
	}
}

// registerMailerEvents registers per-mailer events with the given bus.
func registerMailerEvents(ctx context.Context, bus *event.Bus, events *MailerEvents) error {
	if err := event.Register(ctx, bus, events.MessageComposed); err != nil {
		return fmt.Errorf("register MessageComposed: %w", err)
	}
	if err := event.Register(ctx, bus, events.MessageDelivered); err != nil {
		return fmt.Errorf("register MessageDelivered: %w", err)
	}
	if err := event.Register(ctx, bus, events.DeliveryFailed); err != nil {
		return fmt.Errorf("register DeliveryFailed: %w", err)
	}
	return nil
}
