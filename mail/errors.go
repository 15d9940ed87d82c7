package mail

import "errors"

// Sentinel errors for the mail package.
var (
	// ErrNilMessage is returned when a nil message is handed to a transport.
	ErrNilMessage = errors.New("mail: nil message")

	// ErrEmptyRecipients is returned when a message has no destination addresses.
	ErrEmptyRecipients = errors.New("mail: empty recipients")

	// ErrEmptySender is returned when a message has no From address.
	ErrEmptySender = errors.New("mail: empty sender")

	// ErrInvalidAddress is returned when an address cannot be parsed.
	ErrInvalidAddress = errors.New("mail: invalid address")

	// ErrInvalidContentType is returned when a content type is not a valid
	// MIME type token.
	ErrInvalidContentType = errors.New("mail: invalid content type")

	// ErrUnknownAuthMode is returned when an unrecognized authentication
	// mode is configured.
	ErrUnknownAuthMode = errors.New("mail: unknown auth mode")
)

// Error checking helpers.

func IsEmptyRecipients(err error) bool {
	return errors.Is(err, ErrEmptyRecipients)
}

func IsInvalidAddress(err error) bool {
	return errors.Is(err, ErrInvalidAddress)
}

func IsInvalidContentType(err error) bool {
	return errors.Is(err, ErrInvalidContentType)
}
