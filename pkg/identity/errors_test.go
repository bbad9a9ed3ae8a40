package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFriendly(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected string
	}{
		{"wrong password", &Error{Code: CodeInvalidPassword, StatusCode: 400}, "Incorrect password. Please try again."},
		{"unknown user", &Error{Code: CodeEmailNotFound, StatusCode: 400}, "No account found with this email. Please sign up first."},
		{"email taken", &Error{Code: CodeEmailExists, StatusCode: 400}, "An account with this email already exists. Please sign in instead."},
		{"weak password", &Error{Code: CodeWeakPassword, StatusCode: 400}, "Password should be at least 6 characters."},
		{"malformed email", &Error{Code: CodeInvalidEmail, StatusCode: 400}, "Please enter a valid email address."},
		{"cancelled", &Error{Code: CodeUserCancelled, StatusCode: 400}, "Sign-in was cancelled."},
		{"unknown code", &Error{Code: "TOO_MANY_ATTEMPTS_TRY_LATER", StatusCode: 400}, "Sign-in failed. Please try again."},
		{"not a provider error", errors.New("connection refused"), "Sign-in failed. Please try again."},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, Friendly(c.err))
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WEAK_PASSWORD", NormalizeCode("WEAK_PASSWORD : Password should be at least 6 characters"))
	assert.Equal(t, "INVALID_PASSWORD", NormalizeCode("INVALID_PASSWORD"))
	assert.Equal(t, "EMAIL_EXISTS", NormalizeCode(" EMAIL_EXISTS "))
}
