package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		first string
		last  string
	}{
		{"empty", "", "", ""},
		{"single token", "Alice", "Alice", ""},
		{"two tokens", "Alice Smith", "Alice", "Smith"},
		{"multi token remainder", "Bob van der Berg", "Bob", "van der Berg"},
		{"extra whitespace", "  Alice   Smith  ", "Alice", "Smith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitName(tt.input)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}

func TestNewProfile_DiscreteNamesWin(t *testing.T) {
	p := NewProfile(&User{
		FirstName: "Alice",
		LastName:  "Smith",
		Name:      "Something Else Entirely",
	})

	assert.Equal(t, "Alice", p.FirstName)
	assert.Equal(t, "Smith", p.LastName)
	assert.Equal(t, "Alice Smith", p.FullName)
}

func TestNewProfile_FallsBackToCombinedName(t *testing.T) {
	p := NewProfile(&User{Name: "Bob van der Berg"})

	assert.Equal(t, "Bob", p.FirstName)
	assert.Equal(t, "van der Berg", p.LastName)
	assert.Equal(t, "Bob van der Berg", p.FullName)
}

func TestNewProfile_AddressOnlyWhenPresent(t *testing.T) {
	withoutAddress := NewProfile(&User{Email: "a@x.com"})
	assert.Nil(t, withoutAddress.Address)

	withAddress := NewProfile(&User{Email: "a@x.com", AddressCity: "Lisbon"})
	require.NotNil(t, withAddress.Address)
	assert.Equal(t, "Lisbon", withAddress.Address.City)
}

func TestNewProfile_DateOfBirthFormatted(t *testing.T) {
	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	p := NewProfile(&User{DateOfBirth: &dob})

	assert.Equal(t, "1990-05-01T00:00:00Z", p.DateOfBirth)
}

func TestProfileJSON_OmitsCredentials(t *testing.T) {
	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	user := &User{
		ID:                         "user-1",
		Email:                      "alice@x.com",
		PasswordHash:               "$2a$12$secret",
		FirstName:                  "Alice",
		DateOfBirth:                &dob,
		EmailVerificationTokenHash: "deadbeef",
		PasswordResetTokenHash:     "cafebabe",
		RefreshTokenHash:           "feedface",
	}

	raw, err := json.Marshal(NewProfile(user))
	require.NoError(t, err)

	body := string(raw)
	assert.NotContains(t, body, "secret")
	assert.NotContains(t, body, "deadbeef")
	assert.NotContains(t, body, "cafebabe")
	assert.NotContains(t, body, "feedface")
	assert.NotContains(t, body, "password")
}

func TestUserJSON_HidesSensitiveFields(t *testing.T) {
	// Even if a raw User leaks into a response, the json:"-" tags keep the
	// credential fields out.
	raw, err := json.Marshal(&User{
		Email:                      "alice@x.com",
		PasswordHash:               "$2a$12$secret",
		EmailVerificationTokenHash: "deadbeef",
		RefreshTokenHash:           "feedface",
	})
	require.NoError(t, err)

	body := string(raw)
	assert.NotContains(t, body, "secret")
	assert.NotContains(t, body, "deadbeef")
	assert.NotContains(t, body, "feedface")
}
