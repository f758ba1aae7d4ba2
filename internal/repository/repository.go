package repository

import (
	"context"
	"time"

	"github.com/epten08/go-rest-api/internal/domain"
	"github.com/epten08/go-rest-api/pkg/pagination"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByVerificationTokenHash retrieves the user holding the given
	// outstanding email-verification token digest.
	GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)

	// GetByPasswordResetTokenHash retrieves the user holding the given
	// outstanding password-reset token digest.
	GetByPasswordResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)

	// List returns a page of users matching the pagination params, newest
	// first, along with the total match count. Search matches email and name
	// fields case-insensitively.
	List(ctx context.Context, params pagination.Params) ([]domain.User, int, error)

	// Update modifies an existing user's profile fields.
	Update(ctx context.Context, user *domain.User) error

	// UpdatePassword replaces the password hash and clears the outstanding
	// password-reset fields and the current refresh token, forcing re-login.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetRefreshToken stores the digest of the user's current refresh token,
	// overwriting any previous one.
	SetRefreshToken(ctx context.Context, id, tokenHash string) error

	// ClearRefreshToken removes the current refresh token. Idempotent: clearing
	// an already-empty token is not an error.
	ClearRefreshToken(ctx context.Context, id string) error

	// SetVerificationToken stores a new email-verification token digest and
	// expiry, invalidating any prior outstanding token.
	SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error

	// MarkEmailVerified sets email_verified and clears the verification fields.
	MarkEmailVerified(ctx context.Context, id string) error

	// SetPasswordResetToken stores a new password-reset token digest and expiry.
	SetPasswordResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error
}

// PostRepository defines the interface for post persistence operations.
type PostRepository interface {
	// Create inserts a new post into the store.
	Create(ctx context.Context, post *domain.Post) error

	// GetByID retrieves a post by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Post, error)

	// List returns a page of posts, newest first, with the total match count.
	// Search matches title and content case-insensitively.
	List(ctx context.Context, params pagination.Params) ([]domain.Post, int, error)

	// Update modifies an existing post in the store.
	Update(ctx context.Context, post *domain.Post) error

	// Delete removes a post from the store by its identifier.
	Delete(ctx context.Context, id string) error
}
