package service

import (
	"errors"

	"github.com/portfolio-api/internal/validation"
)

var (
	// ErrValidation marks errors caused by a malformed request
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when the targeted comment does not exist or is deleted
	ErrNotFound = errors.New("comment not found")
	// ErrForbidden is returned when a user modifies a comment they do not own
	ErrForbidden = errors.New("you can only modify your own comments")
)

// ValidationError carries the field errors of a rejected request
type ValidationError struct {
	Errors []validation.ValidationError
}

func (e *ValidationError) Error() string {
	return validation.Join(e.Errors)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(errs ...validation.ValidationError) error {
	return &ValidationError{Errors: errs}
}
