// Package sendmail delivers messages by piping them to a local sendmail
// binary.
package sendmail

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/rbaliyan/courier/mail"
)

// Defaults for the sendmail invocation.
const (
	DefaultPath = "/usr/sbin/sendmail"
)

// DefaultArgs keep dot-only lines intact. Envelope recipients are always
// passed as arguments rather than via -t, since the encoded message omits
// the Bcc header.
var DefaultArgs = []string{"-i"}

// Transport invokes a sendmail binary per delivery, writing the encoded
// message to its stdin.
type Transport struct {
	opts options
}

// New creates a sendmail transport.
func New(opt ...Option) *Transport {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	return &Transport{opts: opts}
}

// Name implements mail.Transport.
func (t *Transport) Name() string {
	return "sendmail"
}

// Deliver encodes msg and pipes it to the configured binary. The full
// recipient set, Bcc included, is appended to the argument list after a
// "--" separator. The command inherits ctx, so cancellation kills an
// in-flight invocation.
func (t *Transport) Deliver(ctx context.Context, msg *mail.Message) error {
	if msg == nil {
		return mail.ErrNilMessage
	}
	recipients := msg.Recipients()
	if len(recipients) == 0 {
		return mail.ErrEmptyRecipients
	}

	raw, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("sendmail: encode message: %w", err)
	}

	argv := make([]string, 0, len(t.opts.args)+1+len(recipients))
	argv = append(argv, t.opts.args...)
	argv = append(argv, "--")
	argv = append(argv, recipients...)

	cmd := exec.CommandContext(ctx, t.opts.path, argv...)
	cmd.Stdin = bytes.NewReader(raw)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("sendmail: %s: %w: %s", t.opts.path, err, stderr.String())
		}
		return fmt.Errorf("sendmail: %s: %w", t.opts.path, err)
	}
	return nil
}
