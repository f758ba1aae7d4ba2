package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/epten08/go-rest-api/internal/domain"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/pagination"
)

const userColumns = `id, email, password_hash, name, first_name, last_name, phone, avatar,
	date_of_birth, gender, device_id,
	address_street, address_city, address_state, address_country, address_postal_code,
	preferences_language, preferences_theme, preferences_notifications,
	email_verified, phone_verified,
	email_verification_token_hash, email_verification_expires_at,
	password_reset_token_hash, password_reset_expires_at,
	refresh_token_hash, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.FirstName,
		u.LastName,
		u.Phone,
		u.Avatar,
		u.DateOfBirth,
		u.Gender,
		u.DeviceID,
		u.AddressStreet,
		u.AddressCity,
		u.AddressState,
		u.AddressCountry,
		u.AddressPostalCode,
		u.PreferencesLanguage,
		u.PreferencesTheme,
		u.PreferencesNotifications,
		u.EmailVerified,
		u.PhoneVerified,
		u.EmailVerificationTokenHash,
		u.EmailVerificationExpiresAt,
		u.PasswordResetTokenHash,
		u.PasswordResetExpiresAt,
		u.RefreshTokenHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// GetByVerificationTokenHash retrieves the user holding the given
// email-verification token digest.
func (r *UserRepository) GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_verification_token_hash = $1 AND email_verification_token_hash != ''`
	return r.scanUser(ctx, query, tokenHash)
}

// GetByPasswordResetTokenHash retrieves the user holding the given
// password-reset token digest.
func (r *UserRepository) GetByPasswordResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE password_reset_token_hash = $1 AND password_reset_token_hash != ''`
	return r.scanUser(ctx, query, tokenHash)
}

// List returns a page of users, newest first, with the total match count.
func (r *UserRepository) List(ctx context.Context, params pagination.Params) ([]domain.User, int, error) {
	var (
		whereClause string
		args        []any
		argIndex    = 1
	)

	if params.Search != "" {
		whereClause = fmt.Sprintf(
			"WHERE (email ILIKE $%d OR name ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			argIndex, argIndex, argIndex, argIndex,
		)
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}

	// count(*) OVER() gives the total match count in a single query.
	query := fmt.Sprintf(`
		SELECT `+userColumns+`, count(*) OVER() AS total_count
		FROM users
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var (
		users      []domain.User
		totalCount int
	)

	for rows.Next() {
		var u domain.User
		if err := scanUserRow(rows, &u, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, totalCount, nil
}

// Update modifies an existing user's profile fields.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $1, name = $2, first_name = $3, last_name = $4, phone = $5,
		    avatar = $6, date_of_birth = $7, gender = $8, device_id = $9,
		    address_street = $10, address_city = $11, address_state = $12,
		    address_country = $13, address_postal_code = $14,
		    preferences_language = $15, preferences_theme = $16, preferences_notifications = $17,
		    updated_at = $18
		WHERE id = $19`

	ct, err := r.db.Exec(ctx, query,
		u.Email,
		u.Name,
		u.FirstName,
		u.LastName,
		u.Phone,
		u.Avatar,
		u.DateOfBirth,
		u.Gender,
		u.DeviceID,
		u.AddressStreet,
		u.AddressCity,
		u.AddressState,
		u.AddressCountry,
		u.AddressPostalCode,
		u.PreferencesLanguage,
		u.PreferencesTheme,
		u.PreferencesNotifications,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the password hash. The outstanding reset token and
// the current refresh token are cleared in the same statement so a password
// change always forces re-login.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1,
		    password_reset_token_hash = '', password_reset_expires_at = NULL,
		    refresh_token_hash = '',
		    updated_at = NOW()
		WHERE id = $2`

	ct, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// SetRefreshToken stores the digest of the user's current refresh token.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id, tokenHash string) error {
	query := `UPDATE users SET refresh_token_hash = $1, updated_at = NOW() WHERE id = $2`

	ct, err := r.db.Exec(ctx, query, tokenHash, id)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ClearRefreshToken removes the current refresh token. Clearing a token for a
// missing or already-logged-out user is not an error.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	query := `UPDATE users SET refresh_token_hash = '', updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}

// SetVerificationToken stores a new email-verification token digest and
// expiry, replacing any prior outstanding token.
func (r *UserRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET email_verification_token_hash = $1, email_verification_expires_at = $2, updated_at = NOW()
		WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, tokenHash, expiresAt, id)
	if err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// MarkEmailVerified sets email_verified and clears the verification fields.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET email_verified = TRUE,
		    email_verification_token_hash = '', email_verification_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// SetPasswordResetToken stores a new password-reset token digest and expiry.
func (r *UserRepository) SetPasswordResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token_hash = $1, password_reset_expires_at = $2, updated_at = NOW()
		WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, tokenHash, expiresAt, id)
	if err != nil {
		return fmt.Errorf("set password reset token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes a user from the database by their ID.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// scanUser executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := scanUserRow(r.db.QueryRow(ctx, query, args...), &u, nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// scanUserRow scans one row of userColumns into u; totalCount, when non-nil,
// receives the trailing count(*) OVER() column.
func scanUserRow(row pgx.Row, u *domain.User, totalCount *int) error {
	dest := []any{
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.FirstName,
		&u.LastName,
		&u.Phone,
		&u.Avatar,
		&u.DateOfBirth,
		&u.Gender,
		&u.DeviceID,
		&u.AddressStreet,
		&u.AddressCity,
		&u.AddressState,
		&u.AddressCountry,
		&u.AddressPostalCode,
		&u.PreferencesLanguage,
		&u.PreferencesTheme,
		&u.PreferencesNotifications,
		&u.EmailVerified,
		&u.PhoneVerified,
		&u.EmailVerificationTokenHash,
		&u.EmailVerificationExpiresAt,
		&u.PasswordResetTokenHash,
		&u.PasswordResetExpiresAt,
		&u.RefreshTokenHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
	if totalCount != nil {
		dest = append(dest, totalCount)
	}
	return row.Scan(dest...)
}
