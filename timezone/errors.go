package timezone

import "fmt"

// ErrorType classifies timezone errors.
type ErrorType string

const (
	ErrNotFound     ErrorType = "not_found"
	ErrInvalidInput ErrorType = "invalid_input"
)

// Error represents a timezone-related error.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidInput(msg string, err error) *Error {
	return &Error{Type: ErrInvalidInput, Message: msg, Err: err}
}
