package courier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rbaliyan/courier/mail"
	"github.com/rbaliyan/courier/transport/capture"
)

var testTemplates = fstest.MapFS{
	"signup.text.html.tmpl":  {Data: []byte("<h1>Welcome {{.name}}</h1>")},
	"signup.text.plain.tmpl": {Data: []byte("Welcome {{.name}}")},
	"reset.tmpl":             {Data: []byte("Reset link for {{.name}}")},
	"invoice.tmpl":           {Data: []byte("Invoice for {{.name}}")},
	"invoice.text.html.tmpl": {Data: []byte("<p>Invoice for {{.name}}</p>")},
}

// newTestMailer creates a connected mailer backed by a capture transport.
func newTestMailer(t *testing.T, opts ...Option) (Mailer, *capture.Transport) {
	t.Helper()
	rec := capture.New()
	base := []Option{
		WithTransport(rec),
		WithDeliveryMethod(rec.Name()),
		WithTemplates(testTemplates, "tmpl"),
	}
	m, err := NewMailer(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewMailer: %v", err)
	}
	ctx := context.Background()
	if err := m.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { m.Close(context.Background()) })
	return m, rec
}

func registerEnvelope(t *testing.T, m Mailer, action string) {
	t.Helper()
	err := m.Register(action, func(ctx context.Context, a *MessageAttributes, vars map[string]any) error {
		a.SetFrom("noreply@example.com").
			SetRecipients("user@example.com").
			SetSubject("Test")
		return nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRegister(t *testing.T) {
	m, _ := newTestMailer(t)

	fn := func(ctx context.Context, a *MessageAttributes, vars map[string]any) error { return nil }

	if err := m.Register("signup", fn); err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("duplicate action", func(t *testing.T) {
		if err := m.Register("signup", fn); !errors.Is(err, ErrActionExists) {
			t.Errorf("expected ErrActionExists, got %v", err)
		}
	})

	t.Run("empty action", func(t *testing.T) {
		var ve *ValidationError
		if err := m.Register("", fn); !errors.As(err, &ve) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})

	t.Run("nil compose func", func(t *testing.T) {
		var ve *ValidationError
		if err := m.Register("other", nil); !errors.As(err, &ve) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})

	t.Run("actions are sorted", func(t *testing.T) {
		if err := m.Register("alpha", fn); err != nil {
			t.Fatal(err)
		}
		got := m.Actions()
		if len(got) != 2 || got[0] != "alpha" || got[1] != "signup" {
			t.Errorf("Actions() = %v", got)
		}
	})
}

func TestCompose(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown action", func(t *testing.T) {
		m, _ := newTestMailer(t)
		msg, err := m.Compose(ctx, "missing", nil)
		if !errors.Is(err, ErrUnknownAction) {
			t.Fatalf("expected ErrUnknownAction, got %v", err)
		}
		if msg != nil {
			t.Fatal("expected nil message on unknown action")
		}
	})

	t.Run("not connected", func(t *testing.T) {
		rec := capture.New()
		m, err := NewMailer(WithTransport(rec), WithDeliveryMethod(rec.Name()))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Compose(ctx, "signup", nil); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("discovered templates form multipart alternative", func(t *testing.T) {
		m, _ := newTestMailer(t)
		registerEnvelope(t, m, "signup")

		msg, err := m.Compose(ctx, "signup", map[string]any{"name": "Ada"})
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if msg.ContentType != "multipart/alternative" {
			t.Errorf("content type = %q", msg.ContentType)
		}
		if len(msg.Parts) != 2 {
			t.Fatalf("expected 2 parts, got %d", len(msg.Parts))
		}
		if msg.Parts[0].ContentType != "text/plain" || msg.Parts[1].ContentType != "text/html" {
			t.Errorf("part order = [%s %s]", msg.Parts[0].ContentType, msg.Parts[1].ContentType)
		}
		if !strings.Contains(msg.Parts[0].Body, "Welcome Ada") {
			t.Errorf("plain part body = %q", msg.Parts[0].Body)
		}
		if msg.Parts[0].Disposition != mail.DispositionInline {
			t.Errorf("disposition = %q", msg.Parts[0].Disposition)
		}
	})

	t.Run("plain template renders into body", func(t *testing.T) {
		m, _ := newTestMailer(t)
		registerEnvelope(t, m, "reset")

		msg, err := m.Compose(ctx, "reset", map[string]any{"name": "Ada"})
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if len(msg.Parts) != 0 {
			t.Fatalf("expected leaf, got %d parts", len(msg.Parts))
		}
		if msg.Body != "Reset link for Ada" {
			t.Errorf("body = %q", msg.Body)
		}
		if msg.ContentType != mail.DefaultContentType {
			t.Errorf("content type = %q", msg.ContentType)
		}
	})

	t.Run("plain template joins typed parts as leading part", func(t *testing.T) {
		m, _ := newTestMailer(t)
		registerEnvelope(t, m, "invoice")

		msg, err := m.Compose(ctx, "invoice", map[string]any{"name": "Ada"})
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if len(msg.Parts) != 2 {
			t.Fatalf("expected 2 parts, got %d", len(msg.Parts))
		}
		if msg.Parts[0].ContentType != "" {
			t.Errorf("lead part content type = %q, want untyped", msg.Parts[0].ContentType)
		}
		if msg.Parts[0].Body != "Invoice for Ada" {
			t.Errorf("lead part body = %q", msg.Parts[0].Body)
		}
		if msg.Parts[1].ContentType != "text/html" {
			t.Errorf("second part = %q", msg.Parts[1].ContentType)
		}
	})

	t.Run("explicit body skips templates", func(t *testing.T) {
		m, _ := newTestMailer(t)
		err := m.Register("signup", func(ctx context.Context, a *MessageAttributes, vars map[string]any) error {
			a.SetFrom("noreply@example.com").
				SetRecipients("user@example.com").
				SetSubject("Test").
				SetBody("custom body")
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		msg, err := m.Compose(ctx, "signup", nil)
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if len(msg.Parts) != 0 {
			t.Fatalf("expected leaf, got %d parts", len(msg.Parts))
		}
		if msg.Body != "custom body" {
			t.Errorf("body = %q", msg.Body)
		}
	})

	t.Run("explicit parts suppress discovery", func(t *testing.T) {
		m, _ := newTestMailer(t)
		err := m.Register("signup", func(ctx context.Context, a *MessageAttributes, vars map[string]any) error {
			a.SetFrom("noreply@example.com").
				SetRecipients("user@example.com").
				SetSubject("Test").
				AddPart(&mail.Part{ContentType: "application/json", Body: "{}"})
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		msg, err := m.Compose(ctx, "signup", nil)
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if len(msg.Parts) != 1 || msg.Parts[0].ContentType != "application/json" {
			t.Fatalf("parts = %d", len(msg.Parts))
		}
		// Only discovery assigns multipart/alternative.
		if msg.ContentType == "multipart/alternative" {
			t.Error("explicit parts must not set multipart/alternative")
		}
	})

	t.Run("compose error propagates", func(t *testing.T) {
		m, _ := newTestMailer(t)
		boom := errors.New("boom")
		err := m.Register("signup", func(ctx context.Context, a *MessageAttributes, vars map[string]any) error {
			return boom
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Compose(ctx, "signup", nil); !errors.Is(err, boom) {
			t.Errorf("expected wrapped compose error, got %v", err)
		}
	})

	t.Run("validation rejects missing sender", func(t *testing.T) {
		m, _ := newTestMailer(t)
		err := m.Register("reset", func(ctx context.Context, a *MessageAttributes, vars map[string]any) error {
			a.SetRecipients("user@example.com")
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Compose(ctx, "reset", map[string]any{"name": "Ada"}); !errors.Is(err, ErrEmptySender) {
			t.Errorf("expected ErrEmptySender, got %v", err)
		}
	})

	t.Run("missing template surfaces as render error", func(t *testing.T) {
		m, _ := newTestMailer(t)
		registerEnvelope(t, m, "unknown-template")
		_, err := m.Compose(ctx, "unknown-template", nil)
		var re *RenderError
		if !errors.As(err, &re) {
			t.Fatalf("expected RenderError, got %v", err)
		}
	})

	t.Run("date defaults to compose time", func(t *testing.T) {
		m, _ := newTestMailer(t)
		registerEnvelope(t, m, "reset")
		msg, err := m.Compose(ctx, "reset", map[string]any{"name": "Ada"})
		if err != nil {
			t.Fatal(err)
		}
		if msg.Date.IsZero() {
			t.Error("expected non-zero message date")
		}
	})
}

func TestComposeRemoteAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("requires blob store", func(t *testing.T) {
		m, _ := newTestMailer(t)
		err := m.Register("reset", func(ctx context.Context, a *MessageAttributes, vars map[string]any) error {
			a.SetFrom("noreply@example.com").
				SetRecipients("user@example.com").
				AttachRemote("s3://bucket/report.pdf", "report.pdf", "application/pdf")
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Compose(ctx, "reset", map[string]any{"name": "Ada"}); !errors.Is(err, ErrBlobStoreRequired) {
			t.Errorf("expected ErrBlobStoreRequired, got %v", err)
		}
	})

	t.Run("loads content from store", func(t *testing.T) {
		store := &stubBlobStore{data: map[string][]byte{
			"s3://bucket/report.pdf": {1, 2, 3, 4},
		}}
		m, _ := newTestMailer(t, WithBlobStore(store))
		err := m.Register("reset", func(ctx context.Context, a *MessageAttributes, vars map[string]any) error {
			a.SetFrom("noreply@example.com").
				SetRecipients("user@example.com").
				AttachRemote("s3://bucket/report.pdf", "report.pdf", "application/pdf")
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		msg, err := m.Compose(ctx, "reset", map[string]any{"name": "Ada"})
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		att := msg.PartByType("application/pdf")
		if att == nil {
			t.Fatal("expected attachment part")
		}
		if att.Filename != "report.pdf" || len(att.Content) != 4 {
			t.Errorf("attachment = %q %d bytes", att.Filename, len(att.Content))
		}
		// The rendered body rides along as the leading part.
		if len(msg.Parts) != 2 {
			t.Fatalf("expected body part plus attachment, got %d parts", len(msg.Parts))
		}
		if !strings.Contains(msg.Parts[0].Body, "Ada") {
			t.Errorf("lead part body = %q, want rendered template", msg.Parts[0].Body)
		}
	})
}
