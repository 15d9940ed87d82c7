package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rbaliyan/courier/mail"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"COURIER_DELIVERY_METHOD", "COURIER_PERFORM_DELIVERIES",
		"COURIER_RAISE_DELIVERY_ERRORS", "COURIER_DOMAIN",
		"COURIER_SMTP_ADDRESS", "COURIER_SMTP_PORT", "COURIER_SMTP_DOMAIN",
		"COURIER_SMTP_USERNAME", "COURIER_SMTP_PASSWORD", "COURIER_SMTP_AUTH",
		"COURIER_SENDMAIL_PATH", "COURIER_LOG_LEVEL",
	}
	for _, env := range envVars {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Delivery.Method != "smtp" {
		t.Errorf("Delivery.Method: got %q, want %q", cfg.Delivery.Method, "smtp")
	}
	if !cfg.Delivery.PerformDeliveries {
		t.Error("Delivery.PerformDeliveries: got false, want true")
	}
	if !cfg.Delivery.RaiseErrors {
		t.Error("Delivery.RaiseErrors: got false, want true")
	}
	if cfg.Delivery.Domain != "localhost" {
		t.Errorf("Delivery.Domain: got %q, want %q", cfg.Delivery.Domain, "localhost")
	}
	if cfg.SMTP.Address != "localhost" || cfg.SMTP.Port != 25 {
		t.Errorf("SMTP: got %q:%d, want localhost:25", cfg.SMTP.Address, cfg.SMTP.Port)
	}
	if cfg.Sendmail.Path != "/usr/sbin/sendmail" {
		t.Errorf("Sendmail.Path: got %q", cfg.Sendmail.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURIER_DELIVERY_METHOD", "ses")
	t.Setenv("COURIER_PERFORM_DELIVERIES", "false")
	t.Setenv("COURIER_RAISE_DELIVERY_ERRORS", "false")
	t.Setenv("COURIER_DOMAIN", "mail.example.com")
	t.Setenv("COURIER_SMTP_ADDRESS", "smtp.example.com")
	t.Setenv("COURIER_SMTP_PORT", "587")
	t.Setenv("COURIER_SMTP_USERNAME", "admin")
	t.Setenv("COURIER_SMTP_PASSWORD", "secret123")
	t.Setenv("COURIER_SMTP_AUTH", "PLAIN")
	t.Setenv("COURIER_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Delivery.Method != "ses" {
		t.Errorf("Delivery.Method: got %q, want %q", cfg.Delivery.Method, "ses")
	}
	if cfg.Delivery.PerformDeliveries {
		t.Error("Delivery.PerformDeliveries: got true, want false")
	}
	if cfg.Delivery.RaiseErrors {
		t.Error("Delivery.RaiseErrors: got true, want false")
	}
	if cfg.SMTP.Address != "smtp.example.com" || cfg.SMTP.Port != 587 {
		t.Errorf("SMTP: got %q:%d", cfg.SMTP.Address, cfg.SMTP.Port)
	}
	if cfg.SMTP.Auth != "plain" {
		t.Errorf("SMTP.Auth: got %q, want %q", cfg.SMTP.Auth, "plain")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_InvalidNumericEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURIER_SMTP_PORT", "not-a-number")
	t.Setenv("COURIER_PERFORM_DELIVERIES", "not-a-bool")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SMTP.Port != 25 {
		t.Errorf("SMTP.Port: got %d, want default 25", cfg.SMTP.Port)
	}
	if !cfg.Delivery.PerformDeliveries {
		t.Error("Delivery.PerformDeliveries: invalid value must keep default true")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	yaml := `
delivery:
  method: sendmail
  perform_deliveries: true
  raise_errors: false
  domain: files.example.com
smtp:
  address: smtp.files.example.com
  port: 465
  auth: login
logging:
  level: warn
`
	path := filepath.Join(t.TempDir(), "courier.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Delivery.Method != "sendmail" {
		t.Errorf("Delivery.Method: got %q, want %q", cfg.Delivery.Method, "sendmail")
	}
	if cfg.Delivery.RaiseErrors {
		t.Error("Delivery.RaiseErrors: got true, want false")
	}
	if cfg.SMTP.Port != 465 {
		t.Errorf("SMTP.Port: got %d, want 465", cfg.SMTP.Port)
	}
	// Defaults survive for keys the file omits.
	if cfg.Sendmail.Path != "/usr/sbin/sendmail" {
		t.Errorf("Sendmail.Path: got %q", cfg.Sendmail.Path)
	}
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURIER_SMTP_PORT", "2525")

	path := filepath.Join(t.TempDir(), "courier.yaml")
	if err := os.WriteFile(path, []byte("smtp:\n  port: 465\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SMTP.Port != 2525 {
		t.Errorf("SMTP.Port: got %d, want env override 2525", cfg.SMTP.Port)
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/courier.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSettings(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.SMTP.Auth = "cram-md5"
	cfg.SMTP.Username = "admin"

	s := cfg.Settings()
	if s.Address != "localhost" || s.Port != 25 {
		t.Errorf("Settings: got %q:%d", s.Address, s.Port)
	}
	if s.Auth != mail.AuthCRAMMD5 {
		t.Errorf("Auth: got %q", s.Auth)
	}

	cfg.SMTP.Auth = "bogus"
	if got := cfg.AuthMode(); got != mail.AuthNone {
		t.Errorf("AuthMode fallback: got %q, want none", got)
	}
}
