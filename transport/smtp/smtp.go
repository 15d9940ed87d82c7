// Package smtp delivers messages over SMTP using the connection settings
// configured on the transport.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/rbaliyan/courier/mail"
)

// Transport delivers messages to a single SMTP endpoint. A fresh
// connection is opened per delivery and released on every exit path.
type Transport struct {
	opts options
}

// New creates an SMTP transport from settings and options.
func New(settings mail.Settings, opt ...Option) (*Transport, error) {
	opts := defaultOptions()
	opts.settings = settings
	for _, o := range opt {
		o(&opts)
	}
	if opts.settings.Address == "" {
		return nil, fmt.Errorf("smtp: %w", mail.ErrInvalidAddress)
	}
	if _, err := auth(opts.settings); err != nil {
		return nil, err
	}
	return &Transport{opts: opts}, nil
}

// Name implements mail.Transport.
func (t *Transport) Name() string {
	return "smtp"
}

// tlsConfig builds the STARTTLS client configuration. The server name
// must be set or the handshake is rejected by crypto/tls.
func tlsConfig(settings mail.Settings) *tls.Config {
	return &tls.Config{ServerName: settings.Address}
}

// Deliver encodes msg and submits it in a single SMTP session. The
// envelope recipients are taken from the message To, Cc and Bcc lists.
func (t *Transport) Deliver(ctx context.Context, msg *mail.Message) error {
	if msg == nil {
		return mail.ErrNilMessage
	}
	recipients := msg.Recipients()
	if len(recipients) == 0 {
		return mail.ErrEmptyRecipients
	}
	if msg.From == "" {
		return mail.ErrEmptySender
	}

	raw, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("smtp: encode message: %w", err)
	}

	dialer := net.Dialer{Timeout: t.opts.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.opts.settings.Addr())
	if err != nil {
		return fmt.Errorf("smtp: dial %s: %w", t.opts.settings.Addr(), err)
	}

	client, err := smtp.NewClient(conn, t.opts.settings.Address)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp: handshake: %w", err)
	}
	defer client.Close()

	if t.opts.settings.Domain != "" {
		if err := client.Hello(t.opts.settings.Domain); err != nil {
			return fmt.Errorf("smtp: hello: %w", err)
		}
	}
	a, err := auth(t.opts.settings)
	if err != nil {
		return err
	}
	if a != nil {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig(t.opts.settings)); err != nil {
				return fmt.Errorf("smtp: starttls: %w", err)
			}
		}
		if err := client.Auth(a); err != nil {
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp: mail from %q: %w", msg.From, err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp: rcpt to %q: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return fmt.Errorf("smtp: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: close body: %w", err)
	}
	return client.Quit()
}
