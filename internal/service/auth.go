package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/epten08/go-rest-api/internal/auth"
	"github.com/epten08/go-rest-api/internal/domain"
	"github.com/epten08/go-rest-api/internal/email"
	"github.com/epten08/go-rest-api/internal/event"
	"github.com/epten08/go-rest-api/internal/repository"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
)

const (
	verificationTokenTTL  = 24 * time.Hour
	passwordResetTokenTTL = time.Hour
)

// AuthService implements the authentication and token-lifecycle state machine.
// It is stateless across calls; all state lives on the user record.
type AuthService struct {
	users    repository.UserRepository
	jwt      *auth.JWTManager
	sender   email.Sender
	producer event.Publisher
	logger   *slog.Logger

	// now is injectable for deterministic expiry tests.
	now func() time.Time
}

// NewAuthService creates a new auth service. The producer may be nil when
// event publishing is disabled.
func NewAuthService(
	users repository.UserRepository,
	jwtManager *auth.JWTManager,
	sender email.Sender,
	producer event.Publisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		jwt:      jwtManager,
		sender:   sender,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	FirstName string
	LastName  string
	Phone     string
	DeviceID  string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
	DeviceID string
}

// Register creates a new user account, issues a token pair, and dispatches a
// verification email without blocking the response.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.Profile, *domain.TokenPair, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return domain.Profile{}, nil, apperrors.Conflict("User with this email already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return domain.Profile{}, nil, fmt.Errorf("check existing user: %w", err)
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return domain.Profile{}, nil, err
	}

	// Discrete first/last names win over the combined legacy name.
	firstName, lastName := input.FirstName, input.LastName
	if firstName == "" && lastName == "" {
		firstName, lastName = domain.SplitName(input.Name)
	}
	fullName := firstName
	if lastName != "" {
		fullName = firstName + " " + lastName
	}

	verificationToken, err := auth.GenerateToken()
	if err != nil {
		return domain.Profile{}, nil, err
	}
	verificationExpiry := s.now().UTC().Add(verificationTokenTTL)

	now := s.now().UTC()
	user := &domain.User{
		ID:                         uuid.New().String(),
		Email:                      input.Email,
		PasswordHash:               passwordHash,
		Name:                       fullName,
		FirstName:                  firstName,
		LastName:                   lastName,
		Phone:                      input.Phone,
		DeviceID:                   input.DeviceID,
		PreferencesLanguage:        "en",
		PreferencesTheme:           "system",
		PreferencesNotifications:   true,
		EmailVerificationTokenHash: auth.HashToken(verificationToken),
		EmailVerificationExpiresAt: &verificationExpiry,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return domain.Profile{}, nil, apperrors.Conflict("User with this email already exists")
		}
		return domain.Profile{}, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return domain.Profile{}, nil, err
	}

	s.dispatchEmail(ctx, "verification", user.Email, func(ctx context.Context) error {
		return s.sender.SendVerificationEmail(ctx, user.Email, verificationToken)
	})

	if s.producer != nil {
		if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user.registered event",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return domain.NewProfile(user), tokens, nil
}

// Login authenticates a user with email and password, returning a fresh token
// pair. Unknown email and wrong password produce the same error so the
// response never discloses which accounts exist.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (domain.Profile, *domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Profile{}, nil, apperrors.Unauthorized("Invalid email or password")
		}
		return domain.Profile{}, nil, fmt.Errorf("get user by email: %w", err)
	}

	if !auth.CheckPassword(input.Password, user.PasswordHash) {
		return domain.Profile{}, nil, apperrors.Unauthorized("Invalid email or password")
	}

	if input.DeviceID != "" && input.DeviceID != user.DeviceID {
		user.DeviceID = input.DeviceID
		if err := s.users.Update(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "failed to update device id on login",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return domain.Profile{}, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return domain.NewProfile(user), tokens, nil
}

// Refresh exchanges a valid refresh token for a new token pair, rotating the
// stored token so the presented one can never be used again. Signature,
// expiry, unknown-subject, and rotation mismatches all collapse into one
// generic failure.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.Verify(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid refresh token")
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	if user.RefreshTokenHash == "" || user.RefreshTokenHash != auth.HashToken(refreshToken) {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// Logout clears the user's current refresh token. Logging out twice is not an
// error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))
	return nil
}

// Me returns the authenticated user's sanitized profile.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Profile{}, apperrors.NotFound("User not found")
		}
		return domain.Profile{}, fmt.Errorf("get user by id: %w", err)
	}

	return domain.NewProfile(user), nil
}

// SendVerificationEmail issues a fresh verification token for the user,
// invalidating any prior outstanding one, and dispatches the email.
func (s *AuthService) SendVerificationEmail(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("User not found")
		}
		return fmt.Errorf("get user by id: %w", err)
	}

	return s.issueVerificationToken(ctx, user)
}

// VerifyEmail consumes a verification token, marking the email verified and
// clearing the token fields. Wrong, already-consumed, and expired tokens are
// indistinguishable to the caller.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (domain.Profile, error) {
	user, err := s.users.GetByVerificationTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Profile{}, apperrors.BadRequest("Invalid or expired verification token")
		}
		return domain.Profile{}, fmt.Errorf("get user by verification token: %w", err)
	}

	if user.EmailVerificationExpiresAt == nil || s.now().UTC().After(*user.EmailVerificationExpiresAt) {
		return domain.Profile{}, apperrors.BadRequest("Invalid or expired verification token")
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return domain.Profile{}, fmt.Errorf("mark email verified: %w", err)
	}

	user.EmailVerified = true
	user.EmailVerificationTokenHash = ""
	user.EmailVerificationExpiresAt = nil

	profile := domain.NewProfile(user)

	s.dispatchEmail(ctx, "welcome", user.Email, func(ctx context.Context) error {
		return s.sender.SendWelcomeEmail(ctx, user.Email, profile.FullName)
	})

	if s.producer != nil {
		if err := s.producer.PublishUserVerified(ctx, user.ID, user.Email); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user.verified event",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "email verified", slog.String("user_id", user.ID))

	return profile, nil
}

// ResendVerificationEmail issues a fresh verification token keyed by email.
// Unknown emails get the same acknowledgement as known ones.
func (s *AuthService) ResendVerificationEmail(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Enumeration-safe: pretend the email was sent.
			return nil
		}
		return fmt.Errorf("get user by email: %w", err)
	}

	return s.issueVerificationToken(ctx, user)
}

// ForgotPassword issues a password-reset token and dispatches the reset
// email. Unknown emails get the same acknowledgement as known ones.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user by email: %w", err)
	}

	resetToken, err := auth.GenerateToken()
	if err != nil {
		return err
	}

	expiresAt := s.now().UTC().Add(passwordResetTokenTTL)
	if err := s.users.SetPasswordResetToken(ctx, user.ID, auth.HashToken(resetToken), expiresAt); err != nil {
		return fmt.Errorf("set password reset token: %w", err)
	}

	s.dispatchEmail(ctx, "password_reset", user.Email, func(ctx context.Context) error {
		return s.sender.SendPasswordResetEmail(ctx, user.Email, resetToken)
	})

	if s.producer != nil {
		if err := s.producer.PublishUserPasswordReset(ctx, user.ID, user.Email); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user.password_reset event",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// ResetPassword consumes a password-reset token and replaces the password.
// The stored refresh token is cleared so existing sessions must log in again.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.GetByPasswordResetTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.BadRequest("Invalid or expired reset token")
		}
		return fmt.Errorf("get user by reset token: %w", err)
	}

	if user.PasswordResetExpiresAt == nil || s.now().UTC().After(*user.PasswordResetExpiresAt) {
		return apperrors.BadRequest("Invalid or expired reset token")
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset", slog.String("user_id", user.ID))
	return nil
}

// issueVerificationToken generates and persists a fresh verification token for
// an unverified user and dispatches the email.
func (s *AuthService) issueVerificationToken(ctx context.Context, user *domain.User) error {
	if user.EmailVerified {
		return apperrors.BadRequest("Email is already verified")
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}

	expiresAt := s.now().UTC().Add(verificationTokenTTL)
	if err := s.users.SetVerificationToken(ctx, user.ID, auth.HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}

	s.dispatchEmail(ctx, "verification", user.Email, func(ctx context.Context) error {
		return s.sender.SendVerificationEmail(ctx, user.Email, token)
	})

	return nil
}

// issueTokenPair mints an access+refresh pair and persists the refresh token
// digest, overwriting any previous session.
func (s *AuthService) issueTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.Issue(user.ID, user.Email, auth.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.jwt.Issue(user.ID, user.Email, auth.TokenKindRefresh)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, auth.HashToken(refreshToken)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshTokenHash = auth.HashToken(refreshToken)

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.AccessExpiry().Seconds()),
	}, nil
}

// dispatchEmail spawns a detached send. Failures are logged and never
// propagate to the operation that triggered them.
func (s *AuthService) dispatchEmail(ctx context.Context, kind, to string, send func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	logger := s.logger
	go func() {
		if err := send(detached); err != nil {
			logger.ErrorContext(detached, "email dispatch failed",
				slog.String("kind", kind),
				slog.String("to", to),
				slog.String("error", err.Error()),
			)
		}
	}()
}
