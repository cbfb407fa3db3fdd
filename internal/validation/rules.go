// Package validation provides input validation utilities
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	specialPattern  = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?~` + "`" + `]`)
)

const (
	MinPasswordLength = 12
	MaxPasswordLength = 128
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxEmailLength    = 254
	MaxNameLength     = 50
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return errors.New("password must be at least 12 characters long")
	}
	if n > MaxPasswordLength {
		return errors.New("password must not exceed 128 characters")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one digit")
	}
	if !specialPattern.MatchString(password) {
		return errors.New("password must contain at least one special character (!@#$%^&*)")
	}

	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength {
		return errors.New("username must be at least 3 characters long")
	}
	if len(username) > MaxUsernameLength {
		return errors.New("username must not exceed 30 characters")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username can only contain letters, numbers, underscores, and hyphens")
	}

	first, last := username[0], username[len(username)-1]
	if first == '_' || first == '-' || last == '_' || last == '-' {
		return errors.New("username cannot start or end with underscore or hyphen")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength {
		return errors.New("email must not exceed 254 characters")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// NormalizeName trims a category or tag name and checks its length.
func NormalizeName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New(kind + " name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", errors.New(kind + " name must not exceed 50 characters")
	}
	return name, nil
}
