package email

import (
	"context"
)

// Sender delivers transactional email. Implementations must not panic; a
// delivery failure is an error for the caller to log, never a reason to fail
// the operation that triggered the send.
type Sender interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendPasswordResetEmail(ctx context.Context, to, token string) error
	SendWelcomeEmail(ctx context.Context, to, name string) error
}

// Messages are built from the application base URL: verification links point
// at the API verify endpoint, reset links at the frontend reset page.
func verificationURL(baseURL, token string) string {
	return baseURL + "/api/v1/auth/verify-email?token=" + token
}

func resetURL(baseURL, token string) string {
	return baseURL + "/reset-password?token=" + token
}
