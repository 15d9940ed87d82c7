package smtp

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/rbaliyan/courier/mail"
)

func TestAuth(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		a, err := auth(mail.Settings{Auth: mail.AuthNone})
		if err != nil || a != nil {
			t.Errorf("auth = %v, %v; want nil, nil", a, err)
		}
	})

	t.Run("empty defaults to none", func(t *testing.T) {
		a, err := auth(mail.Settings{})
		if err != nil || a != nil {
			t.Errorf("auth = %v, %v; want nil, nil", a, err)
		}
	})

	t.Run("plain", func(t *testing.T) {
		a, err := auth(mail.Settings{Auth: mail.AuthPlain, Address: "mx.example.com", Username: "u", Password: "p"})
		if err != nil || a == nil {
			t.Errorf("auth = %v, %v", a, err)
		}
	})

	t.Run("login", func(t *testing.T) {
		a, err := auth(mail.Settings{Auth: mail.AuthLogin, Username: "u", Password: "p"})
		if err != nil {
			t.Fatal(err)
		}
		la, ok := a.(*loginAuth)
		if !ok {
			t.Fatalf("auth type %T", a)
		}
		got, err := la.Next([]byte("Username:"), true)
		if err != nil || string(got) != "u" {
			t.Errorf("username challenge = %q, %v", got, err)
		}
		got, err = la.Next([]byte("Password:"), true)
		if err != nil || string(got) != "p" {
			t.Errorf("password challenge = %q, %v", got, err)
		}
		if _, err := la.Next([]byte("Other:"), true); err == nil {
			t.Error("unexpected challenge accepted")
		}
	})

	t.Run("login requires tls", func(t *testing.T) {
		la := &loginAuth{username: "u", password: "p"}
		if _, _, err := la.Start(&smtp.ServerInfo{TLS: false}); err == nil {
			t.Error("LOGIN allowed without TLS")
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := auth(mail.Settings{Auth: "ntlm"})
		if !errors.Is(err, mail.ErrUnknownAuthMode) {
			t.Errorf("err = %v, want %v", err, mail.ErrUnknownAuthMode)
		}
	})
}

func TestTLSConfig(t *testing.T) {
	cfg := tlsConfig(mail.Settings{Address: "mx.example.com", Port: 587})
	if cfg == nil {
		t.Fatal("nil tls config")
	}
	if cfg.ServerName != "mx.example.com" {
		t.Errorf("server name = %q, want mx.example.com", cfg.ServerName)
	}
	if cfg.InsecureSkipVerify {
		t.Error("certificate verification disabled")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(mail.Settings{}); !errors.Is(err, mail.ErrInvalidAddress) {
		t.Errorf("err = %v, want %v", err, mail.ErrInvalidAddress)
	}
	if _, err := New(mail.Settings{Address: "mx.example.com", Auth: "bogus"}); !errors.Is(err, mail.ErrUnknownAuthMode) {
		t.Errorf("err = %v, want %v", err, mail.ErrUnknownAuthMode)
	}
	tr, err := New(mail.Settings{Address: "mx.example.com", Port: 25})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Name() != "smtp" {
		t.Errorf("name = %q", tr.Name())
	}
}
