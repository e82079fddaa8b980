package valueobject

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidFormat is returned when a value object is built from malformed input.
var ErrInvalidFormat = errors.New("invalid format")

var validate = validator.New()

// Email is a validated email address.
type Email struct {
	value string
}

// NewEmail validates raw and wraps it. Malformed input fails with ErrInvalidFormat.
func NewEmail(raw string) (Email, error) {
	if err := validate.Var(raw, "required,email"); err != nil {
		return Email{}, fmt.Errorf("%w: email %q", ErrInvalidFormat, raw)
	}
	return Email{value: raw}, nil
}

func (e Email) String() string { return e.value }

func (e Email) IsZero() bool { return e.value == "" }

func (e Email) Equal(other Email) bool { return e.value == other.value }
