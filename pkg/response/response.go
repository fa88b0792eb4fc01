package response

import (
	"errors"
)

type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches an HTTP status to an arbitrary error.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{code, err}
}
