package auth

import (
	"errors"
	"fmt"
)

var (
	ErrContextInit = errors.New("authentication context init failed")
	ErrProtocol    = errors.New("authentication conversation protocol error")
	ErrRejected    = errors.New("credentials rejected")
	ErrSessionOpen = errors.New("login session open failed")
)

// DeniedError is returned by Authenticate for every unsuccessful attempt. Kind
// is one of the sentinel errors above; Err is the underlying stack error.
type DeniedError struct {
	Kind error
	Err  error
}

func (e *DeniedError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *DeniedError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func denied(kind, err error) error {
	return &DeniedError{Kind: kind, Err: err}
}

// HumanError is the text shown on the console. Rejections never say which
// field was wrong.
func HumanError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRejected), errors.Is(err, ErrProtocol):
		return "Login incorrect."
	case errors.Is(err, ErrContextInit):
		return "Authentication service unavailable."
	case errors.Is(err, ErrSessionOpen):
		return "Could not open a login session."
	default:
		return "Login incorrect."
	}
}
