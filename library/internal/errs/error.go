package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	ErrAlreadyBorrowed = errors.New("book is already borrowed")
	ErrNotBorrowed     = errors.New("book is not borrowed")
	ErrNotBorrower     = errors.New("book is borrowed by another user")

	ErrAuth       = errors.New("bad email/password")
	ErrEmailTaken = errors.New("email already registered")
)

// ValidationError is a user input problem shown inline on a form.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsBorrowing reports whether err is a rejected borrow/return transition.
func IsBorrowing(err error) bool {
	return errors.Is(err, ErrAlreadyBorrowed) ||
		errors.Is(err, ErrNotBorrowed) ||
		errors.Is(err, ErrNotBorrower)
}
