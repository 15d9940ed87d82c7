// Package config provides environment-variable-first configuration
// loading with optional YAML file fallback for courier deployments.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rbaliyan/courier/mail"
)

// Config holds the complete courier configuration.
type Config struct {
	Delivery DeliveryConfig `yaml:"delivery"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Sendmail SendmailConfig `yaml:"sendmail"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DeliveryConfig holds dispatch configuration.
type DeliveryConfig struct {
	// Method names the transport used for delivery.
	Method string `yaml:"method"`

	// PerformDeliveries disables all transport contact when false.
	PerformDeliveries bool `yaml:"perform_deliveries"`

	// RaiseErrors controls whether transport failures surface to callers.
	RaiseErrors bool `yaml:"raise_errors"`

	// Domain is used in generated Message-Id headers.
	Domain string `yaml:"domain"`
}

// SMTPConfig holds SMTP transport configuration.
type SMTPConfig struct {
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	Domain   string `yaml:"domain"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Auth     string `yaml:"auth"`
}

// SendmailConfig holds local submission agent configuration.
type SendmailConfig struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible
// defaults. Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// Settings converts the SMTP section to transport settings.
func (c *Config) Settings() mail.Settings {
	return mail.Settings{
		Address:  c.SMTP.Address,
		Port:     c.SMTP.Port,
		Domain:   c.SMTP.Domain,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		Auth:     c.AuthMode(),
	}
}

// AuthMode parses the configured SMTP auth mode, falling back to no
// authentication when the value is empty or unknown.
func (c *Config) AuthMode() mail.AuthMode {
	mode, err := mail.ParseAuthMode(c.SMTP.Auth)
	if err != nil {
		return mail.AuthNone
	}
	return mode
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Delivery.Method = "smtp"
	c.Delivery.PerformDeliveries = true
	c.Delivery.RaiseErrors = true
	c.Delivery.Domain = "localhost"
	c.SMTP.Address = "localhost"
	c.SMTP.Port = 25
	c.Sendmail.Path = "/usr/sbin/sendmail"
	c.Sendmail.Args = []string{"-i"}
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("COURIER_DELIVERY_METHOD"); v != "" {
		c.Delivery.Method = v
	}
	if v := os.Getenv("COURIER_PERFORM_DELIVERIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Delivery.PerformDeliveries = b
		}
	}
	if v := os.Getenv("COURIER_RAISE_DELIVERY_ERRORS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Delivery.RaiseErrors = b
		}
	}
	if v := os.Getenv("COURIER_DOMAIN"); v != "" {
		c.Delivery.Domain = v
	}

	if v := os.Getenv("COURIER_SMTP_ADDRESS"); v != "" {
		c.SMTP.Address = v
	}
	if v := os.Getenv("COURIER_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("COURIER_SMTP_DOMAIN"); v != "" {
		c.SMTP.Domain = v
	}
	if v := os.Getenv("COURIER_SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("COURIER_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("COURIER_SMTP_AUTH"); v != "" {
		c.SMTP.Auth = strings.ToLower(v)
	}

	if v := os.Getenv("COURIER_SENDMAIL_PATH"); v != "" {
		c.Sendmail.Path = v
	}

	if v := os.Getenv("COURIER_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
