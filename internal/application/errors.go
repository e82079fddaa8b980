package application

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("User already exist")
)

// MsgPasswordNotMatch is the InvalidInputError message for a wrong current password.
// The transport layer answers it with an authorization failure.
const MsgPasswordNotMatch = "Password not match"

// InvalidInputError reports an update payload rejected by an action's pre-conditions.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func invalidInput(msg string) error { return &InvalidInputError{Message: msg} }

// IsPasswordMismatch reports whether err is the wrong-current-password rejection.
func IsPasswordMismatch(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie) && ie.Message == MsgPasswordNotMatch
}

// UnknownActionError is returned when an action name matches no handler.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("no handler found for action: %s", e.Name)
}
