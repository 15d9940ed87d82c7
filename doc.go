// Package courier provides declarative outbound message composition and
// delivery for Go.
//
// Applications register named actions that populate message attributes
// (recipients, subject, body, headers, attachments). Composing an action
// resolves its body from templates when no explicit body was given,
// assembles the message parts into a single- or multi-part message tree,
// and optionally hands the result to a pluggable delivery transport
// (SMTP, sendmail, AWS SES, Resend, or an in-memory capture log for
// tests).
//
// # Basic Usage
//
//	mailer, err := courier.NewMailer(
//	    courier.WithTemplates(os.DirFS("templates"), "tmpl"),
//	    courier.WithTransport(capture.New()),
//	    courier.WithDeliveryMethod("test-capture"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mailer.Register("signup", func(ctx context.Context, a *courier.MessageAttributes, vars map[string]any) error {
//	    a.SetFrom("noreply@example.com").
//	        SetRecipients(vars["email"].(string)).
//	        SetSubject("Welcome")
//	    return nil
//	})
//
//	if err := mailer.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer mailer.Close(ctx)
//
//	msg, err := mailer.Deliver(ctx, "signup", map[string]any{"email": "a@example.com"})
//
// # Templates
//
// Templates are discovered by naming convention. For an action "signup",
// a file "signup.text.html.tmpl" contributes a text/html part and
// "signup.text.plain.tmpl" a text/plain part; when more than one part is
// discovered the message becomes multipart/alternative. A bare
// "signup.tmpl" is the plain body template. Calling SetBody in the
// action skips template resolution entirely.
//
// # Transports
//
// The transport subpackages provide implementations of mail.Transport:
//   - transport/smtp - network SMTP submission
//   - transport/sendmail - local submission agent
//   - transport/ses - AWS SES v2 API
//   - transport/resend - Resend HTTP API
//   - transport/capture - in-memory log for tests
//
// # Events
//
// Courier publishes typed events for the composition lifecycle using
// the github.com/rbaliyan/event/v3 library. To enable a real transport,
// pass WithRedisClient or WithEventTransport when creating the mailer;
// otherwise events use a noop transport. Access per-mailer events via
// Events():
//
//	mailer.Events().MessageComposed.Subscribe(ctx, handler)
//	mailer.Events().MessageDelivered.Subscribe(ctx, handler)
//	mailer.Events().DeliveryFailed.Subscribe(ctx, handler)
package courier
