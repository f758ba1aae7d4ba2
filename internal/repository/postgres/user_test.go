package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epten08/go-rest-api/internal/domain"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/pagination"
)

func newUserTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewUserRepository(mock)
	return repo, mock
}

func sampleUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:                       "u-1234",
		Email:                    "alice@example.com",
		PasswordHash:             "hash-abc",
		Name:                     "Alice Smith",
		FirstName:                "Alice",
		LastName:                 "Smith",
		Phone:                    "+1234567890",
		PreferencesLanguage:      "en",
		PreferencesTheme:         "system",
		PreferencesNotifications: true,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// userCols returns the 28 column names scanned by scanUserRow and inserted by Create.
func userCols() []string {
	return []string{
		"id", "email", "password_hash", "name", "first_name", "last_name", "phone", "avatar",
		"date_of_birth", "gender", "device_id",
		"address_street", "address_city", "address_state", "address_country", "address_postal_code",
		"preferences_language", "preferences_theme", "preferences_notifications",
		"email_verified", "phone_verified",
		"email_verification_token_hash", "email_verification_expires_at",
		"password_reset_token_hash", "password_reset_expires_at",
		"refresh_token_hash", "created_at", "updated_at",
	}
}

func userRowValues(u *domain.User) []any {
	return []any{
		u.ID, u.Email, u.PasswordHash, u.Name, u.FirstName, u.LastName, u.Phone, u.Avatar,
		u.DateOfBirth, u.Gender, u.DeviceID,
		u.AddressStreet, u.AddressCity, u.AddressState, u.AddressCountry, u.AddressPostalCode,
		u.PreferencesLanguage, u.PreferencesTheme, u.PreferencesNotifications,
		u.EmailVerified, u.PhoneVerified,
		u.EmailVerificationTokenHash, u.EmailVerificationExpiresAt,
		u.PasswordResetTokenHash, u.PasswordResetExpiresAt,
		u.RefreshTokenHash, u.CreatedAt, u.UpdatedAt,
	}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userCols()).AddRow(userRowValues(u)...)
}

func TestUserRepository_Create_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(userRowValues(u)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(userRowValues(u)...).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`))

	err := repo.Create(context.Background(), u)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.FirstName, got.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(userCols()))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows(userCols()))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByVerificationTokenHash(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	expiry := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Microsecond)
	u.EmailVerificationTokenHash = "digest"
	u.EmailVerificationExpiresAt = &expiry

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email_verification_token_hash").
		WithArgs("digest").
		WillReturnRows(userRow(u))

	got, err := repo.GetByVerificationTokenHash(context.Background(), "digest")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.EmailVerificationExpiresAt)
	assert.Equal(t, expiry, *got.EmailVerificationExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByPasswordResetTokenHash_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE password_reset_token_hash").
		WithArgs("digest").
		WillReturnRows(pgxmock.NewRows(userCols()))

	_, err := repo.GetByPasswordResetTokenHash(context.Background(), "digest")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List_WithSearch(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	rows := pgxmock.NewRows(append(userCols(), "total_count")).
		AddRow(append(userRowValues(u), 1)...)

	mock.ExpectQuery("SELECT (.+) count\\(\\*\\) OVER\\(\\) AS total_count").
		WithArgs("%alice%", 10, 0).
		WillReturnRows(rows)

	users, total, err := repo.List(context.Background(), pagination.Params{
		Page: 1, Limit: 10, Search: "alice",
	})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("UPDATE users").
		WithArgs(
			u.Email, u.Name, u.FirstName, u.LastName, u.Phone,
			u.Avatar, u.DateOfBirth, u.Gender, u.DeviceID,
			u.AddressStreet, u.AddressCity, u.AddressState,
			u.AddressCountry, u.AddressPostalCode,
			u.PreferencesLanguage, u.PreferencesTheme, u.PreferencesNotifications,
			pgxmock.AnyArg(), u.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), u)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword_ClearsSessionState(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE users").
		WithArgs("new-hash", "u-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdatePassword(context.Background(), "u-1234", "new-hash")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetRefreshToken(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE users SET refresh_token_hash").
		WithArgs("digest", "u-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetRefreshToken(context.Background(), "u-1234", "digest")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ClearRefreshToken_IdempotentOnMissingUser(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE users SET refresh_token_hash").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.ClearRefreshToken(context.Background(), "missing")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetVerificationToken(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	expiry := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectExec("UPDATE users").
		WithArgs("digest", expiry, "u-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetVerificationToken(context.Background(), "u-1234", "digest", expiry)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkEmailVerified_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE users").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.MarkEmailVerified(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM users").
		WithArgs("u-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "u-1234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
