package courier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rbaliyan/courier/mail"
)

// Deliver composes the action and delivers the built message through
// the configured transport. The built message is returned even when
// delivery fails so callers can inspect or persist it.
func (m *mailer) Deliver(ctx context.Context, action string, vars map[string]any) (*mail.Message, error) {
	msg, err := m.Compose(ctx, action, vars)
	if err != nil {
		return nil, err
	}
	if err := m.DeliverMessage(ctx, msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// DeliverMessage delivers a previously built message.
//
// When deliveries are disabled the call succeeds without contacting a
// transport. Transport failures publish a DeliveryFailed event and are
// returned as a DeliveryError, or swallowed when raiseDeliveryErrors is
// disabled.
func (m *mailer) DeliverMessage(ctx context.Context, msg *mail.Message) error {
	if msg == nil {
		return ErrNotBuilt
	}
	if !m.IsConnected() {
		return ErrNotConnected
	}

	if !m.opts.performDeliveries {
		m.logger.Debug("deliveries disabled, skipping",
			"subject", msg.Subject, "recipients", len(msg.Recipients()))
		return nil
	}

	t, ok := m.opts.transports[m.opts.deliveryMethod]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTransport, m.opts.deliveryMethod)
	}

	if msg.GetHeader("Message-Id") == "" {
		msg.SetHeader("Message-Id", fmt.Sprintf("<%s@%s>", uuid.NewString(), m.opts.domain))
	}

	if err := m.deliverSem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire delivery slot: %w", err)
	}
	defer m.deliverSem.Release(1)

	start := time.Now()
	ctx, endSpan := m.otel.startSpan(ctx, "courier.deliver",
		attribute.String("transport", t.Name()),
		attribute.Int("recipient_count", len(msg.Recipients())),
	)
	var err error
	defer func() {
		endSpan(err)
		m.otel.recordDeliver(ctx, time.Since(start), t.Name(), len(msg.Recipients()), err)
	}()

	if err = m.plugins.beforeDeliver(ctx, msg); err != nil {
		return err
	}

	if deliverErr := t.Deliver(ctx, msg); deliverErr != nil {
		m.publishDeliveryFailed(ctx, t.Name(), msg, deliverErr)
		if m.opts.raiseDeliveryErrors {
			err = &DeliveryError{Transport: t.Name(), Err: deliverErr}
			return err
		}
		m.logger.Warn("delivery failed",
			"transport", t.Name(), "subject", msg.Subject, "error", deliverErr)
		return nil
	}

	// Post-delivery hook failures cannot undo the delivery; log them.
	if hookErr := m.plugins.afterDeliver(ctx, msg); hookErr != nil {
		m.logger.Warn("after-deliver hook failed", "error", hookErr)
	}

	if pubErr := m.events.MessageDelivered.Publish(ctx, MessageDeliveredEvent{
		MessageID:   msg.GetHeader("Message-Id"),
		Transport:   t.Name(),
		Recipients:  msg.Recipients(),
		Subject:     msg.Subject,
		DeliveredAt: time.Now().UTC(),
	}); pubErr != nil {
		if m.opts.eventErrorsFatal {
			// The message is already delivered; surface only the
			// publish failure.
			err = &EventPublishError{Event: "MessageDelivered", Err: pubErr}
			return err
		}
		m.opts.safeEventPublishFailure("MessageDelivered", pubErr)
	}

	m.logger.Info("message delivered",
		"transport", t.Name(), "subject", msg.Subject, "recipients", len(msg.Recipients()))
	return nil
}

// publishDeliveryFailed publishes a DeliveryFailed event, best effort.
func (m *mailer) publishDeliveryFailed(ctx context.Context, transport string, msg *mail.Message, deliverErr error) {
	if pubErr := m.events.DeliveryFailed.Publish(ctx, DeliveryFailedEvent{
		Transport: transport,
		Subject:   msg.Subject,
		Error:     deliverErr.Error(),
		FailedAt:  time.Now().UTC(),
	}); pubErr != nil {
		m.opts.safeEventPublishFailure("DeliveryFailed", pubErr)
	}
}
