package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 30 * time.Second

// MailgunConfig holds the configuration for the Mailgun sender.
type MailgunConfig struct {
	Domain  string
	APIKey  string
	From    string
	BaseURL string
	AppName string
}

// MailgunSender delivers email through the Mailgun API.
type MailgunSender struct {
	mg      *mailgun.MailgunImpl
	from    string
	baseURL string
	appName string
}

// NewMailgunSender creates a Mailgun-backed sender.
func NewMailgunSender(cfg MailgunConfig) (*MailgunSender, error) {
	if cfg.Domain == "" || cfg.APIKey == "" || cfg.From == "" {
		return nil, errors.New("mailgun: domain, api key, and from address are required")
	}

	return &MailgunSender{
		mg:      mailgun.NewMailgun(cfg.Domain, cfg.APIKey),
		from:    cfg.From,
		baseURL: cfg.BaseURL,
		appName: cfg.AppName,
	}, nil
}

func (s *MailgunSender) SendVerificationEmail(ctx context.Context, to, token string) error {
	url := verificationURL(s.baseURL, token)
	subject := "Verify your email - " + s.appName
	body := fmt.Sprintf(
		"Please verify your email by clicking the following link: %s\n\n"+
			"This link will expire in 24 hours.\n\n"+
			"If you didn't create an account, you can safely ignore this email.",
		url,
	)
	return s.send(ctx, to, subject, body)
}

func (s *MailgunSender) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	url := resetURL(s.baseURL, token)
	subject := "Reset your password - " + s.appName
	body := fmt.Sprintf(
		"You requested a password reset. Click the following link to reset your password: %s\n\n"+
			"This link will expire in 1 hour.\n\n"+
			"If you didn't request this, you can safely ignore this email.",
		url,
	)
	return s.send(ctx, to, subject, body)
}

func (s *MailgunSender) SendWelcomeEmail(ctx context.Context, to, name string) error {
	subject := "Welcome to " + s.appName + "!"
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to %s! Your account has been verified successfully.\n\n"+
			"You can now log in and start using our services.",
		name, s.appName,
	)
	return s.send(ctx, to, subject, body)
}

func (s *MailgunSender) send(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	message := s.mg.NewMessage(s.from, subject, body, to)
	if _, _, err := s.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", to, err)
	}
	return nil
}
