package smtprelay

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"
)

var (
	// ErrAuthentication means the relay rejected the sender credentials.
	ErrAuthentication = errors.New("smtp relay: authentication failed")
	// ErrStartTLSUnsupported means the relay would not upgrade the session to TLS.
	ErrStartTLSUnsupported = errors.New("smtp relay: server does not support STARTTLS")
)

// Client defines the interface for handing a message to the SMTP relay
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Dialer opens the TCP connection to the relay.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config describes the relay endpoint and the account used to log in.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	DialTimeout    time.Duration
	SessionTimeout time.Duration
}

// Option adjusts a client built by NewClient.
type Option func(*clientImpl)

// WithDialer replaces the network dialer.
func WithDialer(d Dialer) Option {
	return func(c *clientImpl) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithTLSConfig overrides the STARTTLS configuration. A nil config skips
// STARTTLS entirely and is only meant for local test relays.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *clientImpl) {
		c.tlsConfig = cfg
	}
}

// WithClock replaces the clock used for the Date header.
func WithClock(now func() time.Time) Option {
	return func(c *clientImpl) {
		if now != nil {
			c.now = now
		}
	}
}

type clientImpl struct {
	cfg       Config
	dialer    Dialer
	tlsConfig *tls.Config
	now       func() time.Time
}

// NewClient creates a new SMTP relay client
func NewClient(cfg Config, opts ...Option) Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 30 * time.Second
	}

	c := &clientImpl{
		cfg:    cfg,
		dialer: &net.Dialer{Timeout: cfg.DialTimeout},
		tlsConfig: &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Send opens one session with the relay, upgrades it with STARTTLS, logs in
// and submits msg. The session is always closed before Send returns.
func (c *clientImpl) Send(ctx context.Context, msg Message) error {
	from, to, err := msg.envelope()
	if err != nil {
		return err
	}

	raw, err := buildMessage(msg, c.now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp relay: dial %s: %w", addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.cfg.SessionTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("smtp relay: set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp relay: greeting: %w", err)
	}
	defer client.Close()

	if c.tlsConfig != nil {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return ErrStartTLSUnsupported
		}
		tlsCfg := c.tlsConfig.Clone()
		if tlsCfg.ServerName == "" {
			tlsCfg.ServerName = c.cfg.Host
		}
		if err := client.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("smtp relay: starttls: %w", err)
		}
	}

	if c.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); !ok {
			return errors.New("smtp relay: server does not advertise AUTH")
		}
		auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
		if err := client.Auth(auth); err != nil {
			if isCredentialRejection(err) {
				return fmt.Errorf("%w: %v", ErrAuthentication, err)
			}
			return fmt.Errorf("smtp relay: auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp relay: MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp relay: RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp relay: DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp relay: write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp relay: end of data: %w", err)
	}

	// The relay has accepted the message once DATA is closed; QUIT is best effort.
	_ = client.Quit()
	return nil
}

// isCredentialRejection reports whether err is a relay reply refusing the
// login itself. Transient replies and I/O failures during AUTH are not.
func isCredentialRejection(err error) bool {
	var tpErr *textproto.Error
	if !errors.As(err, &tpErr) {
		return false
	}
	switch tpErr.Code {
	case 530, 534, 535:
		return true
	}
	return false
}
