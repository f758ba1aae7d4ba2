package domain

import (
	"strings"
	"time"
)

// Address is the structured address sub-object in a profile.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Preferences is the user preferences sub-object in a profile.
type Preferences struct {
	Language      string `json:"language"`
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
}

// Profile is the client-safe projection of a User. It carries no password
// hash and no token digests. Every service method that returns a user must
// return a Profile built with NewProfile; nothing else crosses the API
// boundary.
type Profile struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	FirstName     string       `json:"firstName"`
	LastName      string       `json:"lastName"`
	FullName      string       `json:"fullName"`
	Avatar        string       `json:"avatar,omitempty"`
	Phone         string       `json:"phone,omitempty"`
	DateOfBirth   string       `json:"dateOfBirth,omitempty"`
	Gender        string       `json:"gender,omitempty"`
	Address       *Address     `json:"address,omitempty"`
	Preferences   Preferences  `json:"preferences"`
	EmailVerified bool         `json:"emailVerified"`
	PhoneVerified bool         `json:"phoneVerified"`
	DeviceID      string       `json:"deviceId,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// SplitName splits a combined display name into first and last parts:
// first whitespace-separated token becomes the first name, the remainder
// the last name.
func SplitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// NewProfile projects a User into its client-safe representation. Discrete
// first/last names win; a legacy combined name is split as a fallback.
func NewProfile(u *User) Profile {
	firstName := u.FirstName
	lastName := u.LastName
	if firstName == "" && lastName == "" {
		firstName, lastName = SplitName(u.Name)
	}

	p := Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: firstName,
		LastName:  lastName,
		FullName:  strings.TrimSpace(firstName + " " + lastName),
		Avatar:    u.Avatar,
		Phone:     u.Phone,
		Gender:    u.Gender,
		Preferences: Preferences{
			Language:      u.PreferencesLanguage,
			Theme:         u.PreferencesTheme,
			Notifications: u.PreferencesNotifications,
		},
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		DeviceID:      u.DeviceID,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}

	if u.DateOfBirth != nil {
		p.DateOfBirth = u.DateOfBirth.UTC().Format(time.RFC3339)
	}

	if u.AddressStreet != "" || u.AddressCity != "" || u.AddressState != "" ||
		u.AddressCountry != "" || u.AddressPostalCode != "" {
		p.Address = &Address{
			Street:     u.AddressStreet,
			City:       u.AddressCity,
			State:      u.AddressState,
			Country:    u.AddressCountry,
			PostalCode: u.AddressPostalCode,
		}
	}

	return p
}
