package courier

import (
	"errors"
	"fmt"

	"github.com/rbaliyan/courier/mail"
)

// Sentinel errors for the courier package.
// Use errors.Is() to check for these errors.
//
// Errors that correspond to mail-level conditions wrap the mail
// sentinels, so errors.Is(err, courier.ErrEmptyRecipients) matches both
// courier-level and mail-level "no recipients" errors.
var (
	// ErrUnknownAction is returned when no composition routine is
	// registered for the requested action name.
	ErrUnknownAction = errors.New("courier: unknown action")

	// ErrActionExists is returned when registering an action name that
	// is already taken.
	ErrActionExists = errors.New("courier: action already registered")

	// ErrNotBuilt is returned when delivery is attempted with no built
	// message.
	ErrNotBuilt = errors.New("courier: message not built")

	// ErrUnknownTransport is returned when the configured delivery
	// method matches no registered transport.
	ErrUnknownTransport = errors.New("courier: unknown transport")

	// ErrTransportRequired is returned when deliveries are enabled but
	// no transport is configured.
	ErrTransportRequired = errors.New("courier: transport is required")

	// ErrRendererRequired is returned when template resolution is
	// needed but no renderer is configured.
	ErrRendererRequired = errors.New("courier: template renderer is required")

	// ErrBlobStoreRequired is returned when a remote attachment is
	// requested without a configured blob store.
	ErrBlobStoreRequired = errors.New("courier: blob store is required")

	// ErrNotConnected is returned when operations are attempted before
	// Connect().
	ErrNotConnected = errors.New("courier: not connected")

	// ErrAlreadyConnected is returned when Connect() is called twice.
	ErrAlreadyConnected = errors.New("courier: already connected")

	// ErrEmptyRecipients is returned when a message has no recipients.
	// Wraps mail.ErrEmptyRecipients for consistent error checking.
	ErrEmptyRecipients = fmt.Errorf("courier: %w", mail.ErrEmptyRecipients)

	// ErrEmptySender is returned when a message has no sender address.
	// Wraps mail.ErrEmptySender for consistent error checking.
	ErrEmptySender = fmt.Errorf("courier: %w", mail.ErrEmptySender)

	// ErrInvalidAddress is returned for malformed addresses.
	// Wraps mail.ErrInvalidAddress for consistent error checking.
	ErrInvalidAddress = fmt.Errorf("courier: %w", mail.ErrInvalidAddress)

	// ErrInvalidContentType is returned for malformed content types.
	// Wraps mail.ErrInvalidContentType for consistent error checking.
	ErrInvalidContentType = fmt.Errorf("courier: %w", mail.ErrInvalidContentType)

	// ErrSubjectTooLong is returned when subject exceeds maximum length.
	ErrSubjectTooLong = errors.New("courier: subject too long")

	// ErrBodyTooLarge is returned when body exceeds maximum size.
	ErrBodyTooLarge = errors.New("courier: body too large")

	// ErrTooManyRecipients is returned when recipient count exceeds the limit.
	ErrTooManyRecipients = errors.New("courier: too many recipients")

	// ErrTooManyAttachments is returned when attachment count exceeds the limit.
	ErrTooManyAttachments = errors.New("courier: too many attachments")

	// ErrAttachmentTooLarge is returned when an attachment exceeds the size limit.
	ErrAttachmentTooLarge = errors.New("courier: attachment too large")
)

// DeliveryError wraps a transport failure with the transport that
// produced it. It is returned from delivery only when
// raiseDeliveryErrors is enabled.
type DeliveryError struct {
	Transport string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("courier: delivery via %s failed: %v", e.Transport, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsDeliveryError checks if the error is a delivery error and returns details.
func IsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// RenderError wraps a template rendering failure with the template that
// produced it. Rendering failures always abort composition.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("courier: render template %s: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ValidationError provides details about a message validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("courier: validation failed for %s: %s", e.Field, e.Message)
}

// EventPublishError is returned when event publishing fails but the
// underlying operation succeeded.
type EventPublishError struct {
	Event string
	Err   error
}

func (e *EventPublishError) Error() string {
	return fmt.Sprintf("courier: event %s publish failed: %v", e.Event, e.Err)
}

func (e *EventPublishError) Unwrap() error {
	return e.Err
}
