// Package resend delivers messages through the Resend HTTP API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/rbaliyan/courier/mail"
)

// Emails is the slice of the Resend client the transport uses. Tests
// supply mock implementations.
type Emails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Transport maps a message onto Resend's HTML/text body pair. The HTML
// body comes from the message's text/html part and the text body from
// its text/plain part, falling back to the unstructured body when the
// message has no parts.
type Transport struct {
	emails Emails
}

// New creates a Resend transport with apiKey.
func New(apiKey string) *Transport {
	client := resend.NewClient(apiKey)
	return &Transport{emails: client.Emails}
}

// NewWithEmails creates a transport with a caller-supplied API surface.
func NewWithEmails(emails Emails) *Transport {
	return &Transport{emails: emails}
}

// Name implements mail.Transport.
func (t *Transport) Name() string {
	return "resend"
}

// Deliver submits msg via the Resend API.
func (t *Transport) Deliver(ctx context.Context, msg *mail.Message) error {
	if msg == nil {
		return mail.ErrNilMessage
	}
	if len(msg.Recipients()) == 0 {
		return mail.ErrEmptyRecipients
	}
	if msg.From == "" {
		return mail.ErrEmptySender
	}

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
	}
	if html := msg.PartByType("text/html"); html != nil {
		params.Html = html.Body
	}
	if plain := msg.PartByType("text/plain"); plain != nil {
		params.Text = plain.Body
	}
	if params.Html == "" && params.Text == "" {
		params.Text = msg.Body
	}

	if _, err := t.emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: send email: %w", err)
	}
	return nil
}
