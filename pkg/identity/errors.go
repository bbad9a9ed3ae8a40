package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Provider error codes we know how to explain to the user. Anything else
// falls back to the generic sign-in failure message.
const (
	CodeEmailNotFound           = "EMAIL_NOT_FOUND"
	CodeInvalidPassword         = "INVALID_PASSWORD"
	CodeInvalidLoginCredentials = "INVALID_LOGIN_CREDENTIALS"
	CodeEmailExists             = "EMAIL_EXISTS"
	CodeWeakPassword            = "WEAK_PASSWORD"
	CodeInvalidEmail            = "INVALID_EMAIL"
	CodeUserDisabled            = "USER_DISABLED"
	CodeUserCancelled           = "USER_CANCELLED"
)

// Error is a failure reported by the identity provider, carrying its error
// code verbatim.
type Error struct {
	Code       string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity provider error: %s (status %d)", e.Code, e.StatusCode)
}

var friendlyMessages = map[string]string{
	CodeEmailNotFound:           "No account found with this email. Please sign up first.",
	CodeInvalidPassword:         "Incorrect password. Please try again.",
	CodeInvalidLoginCredentials: "Incorrect email or password. Please try again.",
	CodeEmailExists:             "An account with this email already exists. Please sign in instead.",
	CodeWeakPassword:            "Password should be at least 6 characters.",
	CodeInvalidEmail:            "Please enter a valid email address.",
	CodeUserDisabled:            "This account has been disabled.",
	CodeUserCancelled:           "Sign-in was cancelled.",
}

const genericSignInFailure = "Sign-in failed. Please try again."

// Friendly maps a provider error to the message we surface in the sign-in
// modal. Unknown codes and non-provider errors collapse to one generic
// message so backend details never leak to the user.
func Friendly(err error) string {
	var pErr *Error
	if errors.As(err, &pErr) {
		if msg, ok := friendlyMessages[pErr.Code]; ok {
			return msg
		}
	}
	return genericSignInFailure
}

// NormalizeCode strips the detail suffix some responses append, e.g.
// "WEAK_PASSWORD : Password should be at least 6 characters".
func NormalizeCode(message string) string {
	if idx := strings.Index(message, " : "); idx > 0 {
		return message[:idx]
	}
	return strings.TrimSpace(message)
}
