package domain

import (
	"time"
)

// User represents a registered user in the system. Credential and token
// material never leaves the service layer; clients only ever see the
// Profile projection.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	Name      string `json:"name,omitempty"` // legacy combined name
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`

	Phone       string     `json:"phone,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	DeviceID    string     `json:"deviceId,omitempty"`

	AddressStreet     string `json:"addressStreet,omitempty"`
	AddressCity       string `json:"addressCity,omitempty"`
	AddressState      string `json:"addressState,omitempty"`
	AddressCountry    string `json:"addressCountry,omitempty"`
	AddressPostalCode string `json:"addressPostalCode,omitempty"`

	PreferencesLanguage      string `json:"preferencesLanguage,omitempty"`
	PreferencesTheme         string `json:"preferencesTheme,omitempty"`
	PreferencesNotifications bool   `json:"preferencesNotifications"`

	EmailVerified bool `json:"emailVerified"`
	PhoneVerified bool `json:"phoneVerified"`

	EmailVerificationTokenHash string     `json:"-"`
	EmailVerificationExpiresAt *time.Time `json:"-"`
	PasswordResetTokenHash     string     `json:"-"`
	PasswordResetExpiresAt     *time.Time `json:"-"`
	RefreshTokenHash           string     `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TokenPair holds a freshly issued access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"` // access token lifetime in seconds
}
