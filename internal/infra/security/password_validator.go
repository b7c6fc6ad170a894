package security

import (
	"fmt"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	minStrengthScore  = 2
)

// PasswordValidationError represents a single password policy violation.
type PasswordValidationError struct {
	Code    string
	Message string
}

// Error implements error for PasswordValidationError.
func (e *PasswordValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// ValidatePassword applies the registration password policy: length bounds
// plus a zxcvbn strength estimate seeded with the user's own identifiers so
// "name123" style passwords are rejected.
func ValidatePassword(password string, userInputs ...string) error {
	length := len([]rune(password))
	if length < minPasswordLength {
		return &PasswordValidationError{
			Code:    "min_length",
			Message: fmt.Sprintf("password must be at least %d characters long", minPasswordLength),
		}
	}
	if length > maxPasswordLength {
		return &PasswordValidationError{
			Code:    "max_length",
			Message: fmt.Sprintf("password must be at most %d characters long", maxPasswordLength),
		}
	}

	strength := zxcvbn.PasswordStrength(password, userInputs)
	if strength.Score < minStrengthScore {
		return &PasswordValidationError{
			Code:    "weak_password",
			Message: "password is too easy to guess",
		}
	}

	return nil
}
