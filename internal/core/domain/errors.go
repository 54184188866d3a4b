package domain

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// ValidationError collects every constraint a document or request breaks.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Add(problem string) {
	e.Problems = append(e.Problems, problem)
}

// Merge appends the problems of another validation error; other errors are
// added by message.
func (e *ValidationError) Merge(err error) {
	var other *ValidationError
	if errors.As(err, &other) {
		e.Problems = append(e.Problems, other.Problems...)
		return
	}
	e.Add(err.Error())
}

// OrNil returns nil when nothing was recorded, so callers can return it as error.
func (e *ValidationError) OrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
