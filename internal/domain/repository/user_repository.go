package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

// ErrNotFound is returned by lookups that match no user.
var ErrNotFound = errors.New("not found")

// DefaultLimit is the page size used when a filter does not set one.
const DefaultLimit = 10

// UserRepository defines the primary store for users.
// Mutations report success as a boolean; false means nothing was changed.
// Transport failures are returned as errors.
type UserRepository interface {
	FindAll(ctx context.Context) ([]entity.User, error)
	Save(ctx context.Context, u entity.User) (entity.User, error)
	FindByEmail(ctx context.Context, email valueobject.Email) (entity.User, error)
	FindByID(ctx context.Context, id valueobject.UserID) (entity.User, error)
	Delete(ctx context.Context, u entity.User) (bool, error)
	Update(ctx context.Context, u entity.User) (bool, error)
	ChangeEmail(ctx context.Context, u entity.User) (bool, error)
	ChangeUsername(ctx context.Context, u entity.User) (bool, error)
	ChangePassword(ctx context.Context, u entity.User) (bool, error)
	UpdateProvider(ctx context.Context, u entity.User) (bool, error)
	// UpdateAuthorities replaces the stored role set atomically.
	UpdateAuthorities(ctx context.Context, u entity.User) (bool, error)
	VerifyUser(ctx context.Context, u entity.User) (bool, error)
	UserSearcher
}

// UserSearcher runs filtered, paginated user queries.
type UserSearcher interface {
	FilterBy(ctx context.Context, f Filter) (*Page, error)
}

// Filter holds optional search criteria. Nil pointers and empty strings are ignored.
type Filter struct {
	ID             *valueobject.UserID
	Email          *valueobject.Email
	Username       string // prefix match
	IsVerified     *bool
	CreatedAt      *time.Time // same calendar day
	CreatedAtStart *time.Time
	CreatedAtEnd   *time.Time
	Limit          int
	Offset         int
	Order          *Order
}

// PageLimit returns the effective page size.
func (f Filter) PageLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// Order is a sort clause. Stores reject fields they cannot sort on.
type Order struct {
	Field     string
	Direction string // asc or desc
}

// ParseOrder splits a "field-direction" string. The direction defaults to asc.
func ParseOrder(raw string) *Order {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	field, dir, _ := strings.Cut(raw, "-")
	dir = strings.ToLower(strings.TrimSpace(dir))
	if dir != "desc" {
		dir = "asc"
	}
	return &Order{Field: strings.TrimSpace(field), Direction: dir}
}

// Page is one page of a filtered query.
type Page struct {
	Data       []entity.User
	Total      int
	Limit      int
	Page       int
	TotalPages int
}

// NewPage computes page numbers from offset, limit and total.
func NewPage(data []entity.User, total, offset, limit int) *Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Page{
		Data:       data,
		Total:      total,
		Limit:      limit,
		Page:       offset/limit + 1,
		TotalPages: (total + limit - 1) / limit,
	}
}
