package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller input that can never succeed as given.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a referenced user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when creating a user with an existing username.
	ErrUsernameTaken = errors.New("username already exists")
)

func validation(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
