package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(registerPayload{Email: "alice@x.com", Password: "Str0ng!pass"})
	assert.NoError(t, err)
}

func TestValidate_MissingFields(t *testing.T) {
	err := Validate(registerPayload{})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	fields := vErr.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "is required", fields[0].Message)
}

func TestValidate_PasswordComplexity(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"all classes", "Str0ng!pass", true},
		{"missing uppercase", "str0ng!pass", false},
		{"missing lowercase", "STR0NG!PASS", false},
		{"missing digit", "Strong!pass", false},
		{"missing special", "Str0ngpass", false},
		{"too short", "S0!a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(registerPayload{Email: "alice@x.com", Password: tt.password})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_PasswordMessage(t *testing.T) {
	err := Validate(registerPayload{Email: "alice@x.com", Password: "weakpassword"})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "one special character")
}

func TestValidate_EmailFormat(t *testing.T) {
	err := Validate(registerPayload{Email: "not-an-email", Password: "Str0ng!pass"})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "must be a valid email address", vErr.Fields()[0].Message)
}
