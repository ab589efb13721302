// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"codeberg.org/oliverandrich/go-accounts/internal/i18n"
	"github.com/wneessen/go-mail"
)

const (
	// TokenLength is the number of random bytes for activation and reset tokens.
	TokenLength = 32
	// DefaultTimeout bounds a single delivery when the config sets none.
	DefaultTimeout = 10 * time.Second
)

// Service sends account mails over SMTP.
type Service struct {
	cfg       *config.SMTPConfig
	clientURL string
}

// NewService creates a new email service. clientURL is the frontend that
// receives the links in activation and reset mails.
func NewService(cfg *config.SMTPConfig, clientURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:       cfg,
		clientURL: strings.TrimSuffix(clientURL, "/"),
	}, nil
}

// GenerateToken generates a new one-time token.
// Returns (plaintext token, SHA256 hash for storage, error).
func GenerateToken() (string, string, error) {
	bytes := make([]byte, TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plaintext := hex.EncodeToString(bytes)
	return plaintext, HashToken(plaintext), nil
}

// HashToken computes the SHA256 hash of a token.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ActivationURL returns the link that activates an account.
func (s *Service) ActivationURL(token string) string {
	return fmt.Sprintf("%s/#login?token=%s", s.clientURL, url.QueryEscape(token))
}

// PasswordResetURL returns the link that opens the password reset form.
func (s *Service) PasswordResetURL(token string) string {
	return fmt.Sprintf("%s/#user/password?reset=%s", s.clientURL, url.QueryEscape(token))
}

// SendActivation sends the account activation mail.
func (s *Service) SendActivation(ctx context.Context, to, token string) error {
	subject := i18n.T(ctx, "email_activation_subject")
	body := i18n.TData(ctx, "email_activation_body", map[string]any{
		"URL": s.ActivationURL(token),
	})
	return s.send(ctx, to, subject, body)
}

// SendPasswordReset sends the password reset mail.
func (s *Service) SendPasswordReset(ctx context.Context, to, token string) error {
	subject := i18n.T(ctx, "email_password_reset_subject")
	body := i18n.TData(ctx, "email_password_reset_body", map[string]any{
		"URL": s.PasswordResetURL(token),
	})
	return s.send(ctx, to, subject, body)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions(timeout)...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

func (s *Service) clientOptions(timeout time.Duration) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(timeout),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	// Add authentication if credentials are provided
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return opts
}
