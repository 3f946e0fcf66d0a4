package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration values
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	GinMode  string `env:"GIN_MODE" envDefault:"release"`

	Relay RelayConfig
	SMTP  SMTPConfig `envPrefix:"SMTP_"`

	// ThankYouPath is returned to the browser as the redirect hint after a successful send.
	ThankYouPath string `env:"THANK_YOU_PATH" envDefault:"/thank_you.html"`

	// RequireBankNumber switches between the two form variants: when false the
	// bank-number field is optional and rendered as N/A if missing.
	RequireBankNumber bool `env:"REQUIRE_BANK_NUMBER" envDefault:"true"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// RelayConfig identifies who sends the application mail and who receives it.
// All three values must be set before any mail is attempted.
type RelayConfig struct {
	SenderEmail    string `env:"SENDER_EMAIL"`
	SenderPassword string `env:"SENDER_PASSWORD"`
	ReceiverEmail  string `env:"RECEIVER_EMAIL"`
}

// SMTPConfig describes the relay endpoint.
type SMTPConfig struct {
	Host           string        `env:"HOST" envDefault:"smtp.gmail.com"`
	Port           int           `env:"PORT" envDefault:"587"`
	DialTimeout    time.Duration `env:"DIAL_TIMEOUT" envDefault:"10s"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"30s"`
}

// Complete reports whether every relay value is present.
func (r RelayConfig) Complete() bool {
	return strings.TrimSpace(r.SenderEmail) != "" &&
		r.SenderPassword != "" &&
		strings.TrimSpace(r.ReceiverEmail) != ""
}

// Missing lists the environment variable names of absent relay values.
func (r RelayConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(r.SenderEmail) == "" {
		missing = append(missing, "SENDER_EMAIL")
	}
	if r.SenderPassword == "" {
		missing = append(missing, "SENDER_PASSWORD")
	}
	if strings.TrimSpace(r.ReceiverEmail) == "" {
		missing = append(missing, "RECEIVER_EMAIL")
	}
	return missing
}

// LoadConfig reads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.sanitize()
	return cfg, nil
}

func (c *Config) sanitize() {
	c.Relay.SenderEmail = strings.TrimSpace(c.Relay.SenderEmail)
	c.Relay.ReceiverEmail = strings.TrimSpace(c.Relay.ReceiverEmail)
	c.SMTP.Host = strings.TrimSpace(c.SMTP.Host)
	if c.SMTP.Host == "" {
		c.SMTP.Host = "smtp.gmail.com"
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		c.SMTP.Port = 587
	}
	if c.SMTP.DialTimeout <= 0 {
		c.SMTP.DialTimeout = 10 * time.Second
	}
	if c.SMTP.SessionTimeout < c.SMTP.DialTimeout {
		c.SMTP.SessionTimeout = c.SMTP.DialTimeout
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	if c.ThankYouPath == "" {
		c.ThankYouPath = "/thank_you.html"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}

	origins := c.CORSAllowedOrigins[:0]
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.CORSAllowedOrigins = origins
}

// IsDevelopment reports whether the service runs in a local development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}
