package response

import "errors"

// Error is an API error carrying the HTTP status it should map to.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

// NewError wraps a message with the HTTP status it should be served as.
func NewError(code int, msg string) error {
	return &Error{Code: code, Err: errors.New(msg)}
}
