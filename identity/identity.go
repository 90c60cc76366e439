// Package identity owns user records: credentials, institutional
// identifiers, profile fields, and password-reset tokens.
package identity

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInstitutionalIDTaken is returned when an institutional id is already claimed.
	ErrInstitutionalIDTaken = errors.New("institutional id already registered")
	// ErrInvalidEmail is returned for emails outside the institution's domain.
	ErrInvalidEmail = errors.New("email must belong to the institution domain")
	// ErrInvalidInstitutionalID is returned for malformed institutional ids.
	ErrInvalidInstitutionalID = errors.New("institutional id must match N1234567")
	// ErrInvalidUsername is returned for empty or oversized usernames.
	ErrInvalidUsername = errors.New("username must be 1-64 characters")
)

// institutionalIDPattern matches the fixed institutional format: an upper-case
// N followed by seven digits.
var institutionalIDPattern = regexp.MustCompile(`^N\d{7}$`)

// Identity is a registered user record.
type Identity struct {
	ID              string       `json:"id"`
	Email           string       `json:"email"`
	Username        string       `json:"username"`
	InstitutionalID string       `json:"institutional_id,omitempty"`
	Bio             string       `json:"bio,omitempty"`
	Password        PasswordHash `json:"password"`

	// At most one reset token is active per identity. The plaintext token
	// is never stored; consuming or expiring it clears both fields.
	ResetTokenHash   string    `json:"reset_token_hash,omitempty"`
	ResetTokenExpiry time.Time `json:"reset_token_expiry,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ValidateEmail checks that email is well formed and belongs to the given
// institution domain. Comparison is case-insensitive.
func ValidateEmail(email, domain string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	if email[at+1:] != strings.ToLower(domain) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateInstitutionalID checks the fixed institutional id format.
// An empty id is allowed; the field is optional at registration.
func ValidateInstitutionalID(id string) error {
	if id == "" {
		return nil
	}
	if !institutionalIDPattern.MatchString(id) {
		return ErrInvalidInstitutionalID
	}
	return nil
}

// ValidateUsername bounds the display name.
func ValidateUsername(name string) error {
	if name == "" || len(name) > 64 {
		return ErrInvalidUsername
	}
	return nil
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
