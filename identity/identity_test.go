package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"a@nyu.edu", true},
		{"A.Student@NYU.EDU", true},
		{"a@gmail.com", false},
		{"a@students.nyu.edu", false},
		{"nyu.edu", false},
		{"@nyu.edu", false},
		{"a@", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ValidateEmail(tt.email, "nyu.edu")
		if tt.valid {
			assert.NoError(t, err, tt.email)
		} else {
			assert.ErrorIs(t, err, ErrInvalidEmail, tt.email)
		}
	}
}

func TestValidateInstitutionalID(t *testing.T) {
	assert.NoError(t, ValidateInstitutionalID("N1234567"))
	assert.NoError(t, ValidateInstitutionalID("")) // optional
	assert.ErrorIs(t, ValidateInstitutionalID("n1234567"), ErrInvalidInstitutionalID)
	assert.ErrorIs(t, ValidateInstitutionalID("N123456"), ErrInvalidInstitutionalID)
	assert.ErrorIs(t, ValidateInstitutionalID("N12345678"), ErrInvalidInstitutionalID)
	assert.ErrorIs(t, ValidateInstitutionalID("X1234567"), ErrInvalidInstitutionalID)
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("sam"))
	assert.ErrorIs(t, ValidateUsername(""), ErrInvalidUsername)
}
