package email

import (
	"context"
	"log/slog"
)

// LogSender logs emails instead of sending them. Used outside production so
// verification and reset links show up in the service logs during development.
type LogSender struct {
	baseURL string
	appName string
	logger  *slog.Logger
}

// NewLogSender creates a log-only email sender.
func NewLogSender(baseURL, appName string, logger *slog.Logger) *LogSender {
	return &LogSender{baseURL: baseURL, appName: appName, logger: logger}
}

func (s *LogSender) SendVerificationEmail(ctx context.Context, to, token string) error {
	s.logger.InfoContext(ctx, "email would be sent",
		slog.String("to", to),
		slog.String("subject", "Verify your email - "+s.appName),
		slog.String("url", verificationURL(s.baseURL, token)),
	)
	return nil
}

func (s *LogSender) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	s.logger.InfoContext(ctx, "email would be sent",
		slog.String("to", to),
		slog.String("subject", "Reset your password - "+s.appName),
		slog.String("url", resetURL(s.baseURL, token)),
	)
	return nil
}

func (s *LogSender) SendWelcomeEmail(ctx context.Context, to, name string) error {
	s.logger.InfoContext(ctx, "email would be sent",
		slog.String("to", to),
		slog.String("subject", "Welcome to "+s.appName+"!"),
		slog.String("name", name),
	)
	return nil
}
