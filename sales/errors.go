// errors.go - Domain error vocabulary.
//
// Sentinels for errors.Is checks plus the structured ValidationError the
// data-entry boundary returns. The api package maps these onto HTTP codes.
package sales

import (
	"errors"
	"fmt"
)

var (
	// ErrUsernameTaken is returned when creating a user whose username
	// already exists.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords, deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports the first offending field of a raw input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a boundary validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
