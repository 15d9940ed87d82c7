package courier

import (
	"fmt"
	"mime"
	netmail "net/mail"
	"strings"

	"github.com/rbaliyan/courier/mail"
)

// MessageLimits holds all message validation limits.
// Used to pass limits to validation functions.
type MessageLimits struct {
	MaxSubjectLength   int
	MaxBodySize        int
	MaxAttachmentSize  int64
	MaxAttachmentCount int
	MaxRecipientCount  int
}

// DefaultLimits returns the default message limits.
func DefaultLimits() MessageLimits {
	return MessageLimits{
		MaxSubjectLength:   DefaultMaxSubjectLength,
		MaxBodySize:        DefaultMaxBodySize,
		MaxAttachmentSize:  DefaultMaxAttachmentSize,
		MaxAttachmentCount: DefaultMaxAttachmentCount,
		MaxRecipientCount:  DefaultMaxRecipientCount,
	}
}

// ValidateAddress checks that addr is a valid RFC 5322 address.
func ValidateAddress(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return ErrInvalidAddress
	}
	if _, err := netmail.ParseAddress(addr); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return nil
}

// ValidateContentType checks that ct parses as a MIME media type.
// An empty content type is valid; the encoder applies the default.
func ValidateContentType(ct string) error {
	if ct == "" {
		return nil
	}
	if _, _, err := mime.ParseMediaType(ct); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidContentType, ct)
	}
	return nil
}

// ValidateMessage checks a built message against the configured limits.
// Envelope fields are validated on the root only; the part tree is
// walked for content types, body size and attachment limits.
func ValidateMessage(msg *mail.Message, limits MessageLimits) error {
	if msg == nil {
		return ErrNotBuilt
	}
	if strings.TrimSpace(msg.From) == "" {
		return ErrEmptySender
	}
	if err := ValidateAddress(msg.From); err != nil {
		return err
	}
	recipients := msg.Recipients()
	if len(recipients) == 0 {
		return ErrEmptyRecipients
	}
	if limits.MaxRecipientCount > 0 && len(recipients) > limits.MaxRecipientCount {
		return fmt.Errorf("%w: %d exceeds limit of %d",
			ErrTooManyRecipients, len(recipients), limits.MaxRecipientCount)
	}
	for _, addr := range recipients {
		if err := ValidateAddress(addr); err != nil {
			return err
		}
	}
	if limits.MaxSubjectLength > 0 && len(msg.Subject) > limits.MaxSubjectLength {
		return fmt.Errorf("%w: %d characters exceeds limit of %d",
			ErrSubjectTooLong, len(msg.Subject), limits.MaxSubjectLength)
	}

	v := &messageValidator{limits: limits}
	return v.walk(msg)
}

// messageValidator accumulates totals while walking a message tree.
type messageValidator struct {
	limits      MessageLimits
	bodySize    int
	attachments int
}

func (v *messageValidator) walk(m *mail.Message) error {
	if err := ValidateContentType(m.ContentType); err != nil {
		return err
	}
	if m.Disposition == mail.DispositionAttachment {
		v.attachments++
		if v.limits.MaxAttachmentCount > 0 && v.attachments > v.limits.MaxAttachmentCount {
			return fmt.Errorf("%w: limit is %d",
				ErrTooManyAttachments, v.limits.MaxAttachmentCount)
		}
		size := int64(len(m.Content))
		if size == 0 {
			size = int64(len(m.Body))
		}
		if v.limits.MaxAttachmentSize > 0 && size > v.limits.MaxAttachmentSize {
			return fmt.Errorf("%w: %q is %d bytes, limit is %d",
				ErrAttachmentTooLarge, m.Filename, size, v.limits.MaxAttachmentSize)
		}
	} else {
		v.bodySize += len(m.Body)
		if v.limits.MaxBodySize > 0 && v.bodySize > v.limits.MaxBodySize {
			return fmt.Errorf("%w: limit is %d bytes",
				ErrBodyTooLarge, v.limits.MaxBodySize)
		}
	}
	for _, p := range m.Parts {
		if err := v.walk(p); err != nil {
			return err
		}
	}
	return nil
}
