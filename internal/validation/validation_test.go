package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass123!", false},
		{"Exactly Min Length", "Abcdefghij1!", false},
		{"Exactly Max Length", "A" + strings.Repeat("b", 125) + "1!", false},
		{"Too Short", "Small1!", true},
		{"Too Long", "A" + strings.Repeat("b", 126) + "1!", true},
		{"No Upper", "securepass12!", true},
		{"No Lower", "SECUREPASS12!", true},
		{"No Digit", "SecurePass!!", true},
		{"No Special", "SecurePass123", true},
		{"Unicode Characters", "ÅngstromPass12!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Too Short", "tu", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Illegal Chars", "user@123", true},
		{"Starts Dash", "-user", true},
		{"Ends Underscore", "user_", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.Error(t, ValidateEmail("alice@"))
	assert.Error(t, ValidateEmail("plain"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.com"))
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	name, err := NormalizeName("category", "  Go  ")
	assert.NoError(t, err)
	assert.Equal(t, "Go", name)

	_, err = NormalizeName("tag", "   ")
	assert.EqualError(t, err, "tag name is required")

	_, err = NormalizeName("tag", strings.Repeat("x", 51))
	assert.Error(t, err)
}

type signupRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Bio      string `json:"bio" validate:"max=10"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	ok := signupRequest{Username: "alice", Email: "alice@example.com", Password: "SecurePass123!"}
	assert.NoError(t, Struct(ok))

	missing := ok
	missing.Username = ""
	assert.EqualError(t, Struct(missing), "username is required")

	badPassword := ok
	badPassword.Password = "short"
	assert.EqualError(t, Struct(badPassword), "password must be at least 12 characters long")

	badEmail := ok
	badEmail.Email = "nope"
	assert.EqualError(t, Struct(badEmail), "invalid email format")

	longBio := ok
	longBio.Bio = strings.Repeat("b", 11)
	assert.EqualError(t, Struct(longBio), "bio must not exceed 10 characters")
}
