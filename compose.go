package courier

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/rbaliyan/courier/mail"
)

// ComposeFunc populates message attributes for one action. The vars map
// carries caller-supplied data into the compose function and its
// templates.
type ComposeFunc func(ctx context.Context, a *MessageAttributes, vars map[string]any) error

// Register binds a compose function to an action name. Action names
// must be unique; registering a name twice returns ErrActionExists.
func (m *mailer) Register(action string, fn ComposeFunc) error {
	if action == "" {
		return &ValidationError{Field: "action", Message: "must not be empty"}
	}
	if fn == nil {
		return &ValidationError{Field: "fn", Message: "compose func must not be nil"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.actions[action]; ok {
		return fmt.Errorf("%w: %q", ErrActionExists, action)
	}
	m.actions[action] = fn
	return nil
}

// Actions returns the names of all registered actions, sorted.
func (m *mailer) Actions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.actions))
	for name := range m.actions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Compose runs the action's compose function, resolves templates and
// remote attachments, and builds the resulting message.
func (m *mailer) Compose(ctx context.Context, action string, vars map[string]any) (*mail.Message, error) {
	if !m.IsConnected() {
		return nil, ErrNotConnected
	}

	start := time.Now()
	ctx, endSpan := m.otel.startSpan(ctx, "courier.compose",
		attribute.String("action", action),
	)
	var err error
	defer func() {
		endSpan(err)
		m.otel.recordCompose(ctx, time.Since(start), action, err)
	}()

	m.mu.RLock()
	fn, ok := m.actions[action]
	m.mu.RUnlock()
	if !ok {
		err = fmt.Errorf("%w: %q", ErrUnknownAction, action)
		return nil, err
	}

	a := newMessageAttributes(action, m.opts)
	if err = fn(ctx, a, vars); err != nil {
		err = fmt.Errorf("compose %q: %w", action, err)
		return nil, err
	}

	if err = m.resolveRemoteAttachments(ctx, a); err != nil {
		return nil, err
	}
	if err = m.resolveBody(a, vars); err != nil {
		return nil, err
	}

	if a.sentOn.IsZero() {
		a.sentOn = time.Now().UTC()
	}

	msg := buildMessage(a)
	if err = ValidateMessage(msg, m.opts.getLimits()); err != nil {
		return nil, err
	}

	if pubErr := m.events.MessageComposed.Publish(ctx, MessageComposedEvent{
		Action:     action,
		Subject:    msg.Subject,
		Recipients: msg.Recipients(),
		ComposedAt: msg.Date,
	}); pubErr != nil {
		if m.opts.eventErrorsFatal {
			err = &EventPublishError{Event: "MessageComposed", Err: pubErr}
			return nil, err
		}
		m.opts.safeEventPublishFailure("MessageComposed", pubErr)
	}

	return msg, nil
}

// resolveBody fills in the message body from templates.
//
// An explicitly set body wins outright: no discovery and no template
// rendering happen. Otherwise, when no explicit parts were added, every
// template variant for the action is rendered into an inline part and
// the message becomes multipart/alternative. The plain template renders
// into the body when it exists or when no parts were produced at all.
func (m *mailer) resolveBody(a *MessageAttributes, vars map[string]any) error {
	if a.bodySet {
		a.parts = assembleParts(a.parts, nil, a.partsOrder)
		return nil
	}
	if m.opts.resolver == nil {
		a.parts = assembleParts(a.parts, nil, a.partsOrder)
		return nil
	}

	var discovered []*mail.Part
	if len(a.parts) == 0 {
		candidates, err := m.opts.resolver.Discover(a.template)
		if err != nil {
			return fmt.Errorf("discover templates for %q: %w", a.template, err)
		}
		for _, c := range candidates {
			body, err := m.opts.renderer.Render(c.Name, vars)
			if err != nil {
				return &RenderError{Template: c.Name, Err: err}
			}
			discovered = append(discovered, &mail.Part{
				ContentType: c.ContentType,
				Disposition: mail.DispositionInline,
				Charset:     a.charset,
				Body:        body,
			})
		}
		if len(discovered) > 0 && !strings.HasPrefix(strings.ToLower(a.contentType), "multipart/") {
			a.contentType = "multipart/alternative"
		}
	}

	a.parts = assembleParts(a.parts, discovered, a.partsOrder)

	hasPlain, err := m.opts.resolver.HasPlainVariant(a.template)
	if err != nil {
		return fmt.Errorf("discover templates for %q: %w", a.template, err)
	}

	// The plain template renders into the body; when other parts exist
	// the builder prepends it as the leading untyped part.
	if len(a.parts) == 0 || hasPlain {
		name := m.opts.resolver.PlainName(a.template)
		body, err := m.opts.renderer.Render(name, vars)
		if err != nil {
			return &RenderError{Template: name, Err: err}
		}
		a.SetBody(body)
	}
	return nil
}

// resolveRemoteAttachments loads queued blob references through the
// configured blob store and turns them into attachment parts.
func (m *mailer) resolveRemoteAttachments(ctx context.Context, a *MessageAttributes) error {
	if len(a.remote) == 0 {
		return nil
	}
	if m.opts.blobs == nil {
		return ErrBlobStoreRequired
	}
	for _, r := range a.remote {
		content, err := m.loadBlob(ctx, r.uri)
		if err != nil {
			return fmt.Errorf("load attachment %q: %w", r.uri, err)
		}
		a.attachments = append(a.attachments, &mail.Part{
			ContentType: r.contentType,
			Disposition: mail.DispositionAttachment,
			Filename:    r.filename,
			Content:     content,
		})
	}
	a.remote = nil
	return nil
}

func (m *mailer) loadBlob(ctx context.Context, uri string) ([]byte, error) {
	rc, err := m.opts.blobs.Load(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
