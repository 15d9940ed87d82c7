package mail

import (
	"strings"
	"testing"
	"time"
)

func TestRecipients(t *testing.T) {
	msg := &Message{
		To:  []string{"a@example.com", "b@example.com"},
		Cc:  []string{"c@example.com"},
		Bcc: []string{"d@example.com"},
	}

	got := msg.Recipients()
	want := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}
	if len(got) != len(want) {
		t.Fatalf("expected %d recipients, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recipient %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestIsMultipart(t *testing.T) {
	t.Run("leaf is not multipart", func(t *testing.T) {
		msg := &Message{ContentType: "text/plain", Body: "hi"}
		if msg.IsMultipart() {
			t.Error("leaf message reported as multipart")
		}
	})

	t.Run("container is multipart", func(t *testing.T) {
		msg := &Message{
			ContentType: "multipart/alternative",
			Parts: []*Message{
				{ContentType: "text/plain", Body: "hi"},
			},
		}
		if !msg.IsMultipart() {
			t.Error("container message not reported as multipart")
		}
	})
}

func TestPartByType(t *testing.T) {
	msg := &Message{
		ContentType: "multipart/alternative",
		Parts: []*Message{
			{ContentType: "text/plain", Body: "plain"},
			{ContentType: "text/html", Body: "<p>html</p>"},
		},
	}

	if p := msg.PartByType("text/html"); p == nil || p.Body != "<p>html</p>" {
		t.Errorf("expected html part, got %+v", p)
	}
	if p := msg.PartByType("TEXT/PLAIN"); p == nil || p.Body != "plain" {
		t.Errorf("expected case-insensitive match for plain part, got %+v", p)
	}
	if p := msg.PartByType("text/enriched"); p != nil {
		t.Errorf("expected nil for missing type, got %+v", p)
	}
}

func TestParseAuthMode(t *testing.T) {
	cases := []struct {
		in      string
		want    AuthMode
		wantErr bool
	}{
		{"", AuthNone, false},
		{"none", AuthNone, false},
		{"plain", AuthPlain, false},
		{"login", AuthLogin, false},
		{"cram-md5", AuthCRAMMD5, false},
		{"oauth2", "", true},
	}

	for _, tc := range cases {
		got, err := ParseAuthMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseAuthMode(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAuthMode(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAuthMode(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestEncodeLeaf(t *testing.T) {
	msg := &Message{
		From:        "sender@example.com",
		To:          []string{"rcpt@example.com"},
		Subject:     "Greetings",
		Date:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ContentType: "text/plain",
		Charset:     "utf-8",
		Body:        "Hello there",
	}

	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out := string(data)
	for _, want := range []string{
		"From: sender@example.com",
		"To: rcpt@example.com",
		"Subject: Greetings",
		"Hello there",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded output missing %q:\n%s", want, out)
		}
	}
}

func TestEncodeMultipart(t *testing.T) {
	msg := &Message{
		From:        "sender@example.com",
		To:          []string{"rcpt@example.com"},
		Subject:     "Both kinds",
		ContentType: "multipart/alternative",
		Parts: []*Message{
			{ContentType: "text/plain", Charset: "utf-8", Body: "plain body"},
			{ContentType: "text/html", Charset: "utf-8", Body: "<p>html body</p>"},
		},
	}

	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "multipart/alternative") {
		t.Errorf("encoded output missing container content type:\n%s", out)
	}
	plainIdx := strings.Index(out, "plain body")
	htmlIdx := strings.Index(out, "html body")
	if plainIdx < 0 || htmlIdx < 0 {
		t.Fatalf("encoded output missing part bodies:\n%s", out)
	}
	if plainIdx > htmlIdx {
		t.Error("part order not preserved: plain should precede html")
	}
}

func TestEncodeOmitsBcc(t *testing.T) {
	msg := &Message{
		From:        "sender@example.com",
		To:          []string{"rcpt@example.com"},
		Bcc:         []string{"hidden@example.com"},
		ContentType: "text/plain",
		Body:        "body",
	}

	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if strings.Contains(string(data), "hidden@example.com") {
		t.Error("Bcc address leaked into encoded message")
	}
}
