package valueobject

import (
	"fmt"

	"github.com/google/uuid"
)

// UserID identifies a user account.
type UserID struct {
	value uuid.UUID
}

// NewUserID generates a fresh random identifier.
func NewUserID() UserID {
	return UserID{value: uuid.New()}
}

// ParseUserID fails with ErrInvalidFormat when raw is not a UUID.
func ParseUserID(raw string) (UserID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return UserID{}, fmt.Errorf("%w: user id %q", ErrInvalidFormat, raw)
	}
	return UserID{value: id}, nil
}

func (id UserID) String() string { return id.value.String() }

func (id UserID) UUID() uuid.UUID { return id.value }

func (id UserID) IsZero() bool { return id.value == uuid.Nil }
