package entity

import (
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

// User is the aggregate root for the user domain.
// Password holds a bcrypt hash, never the plaintext.
//
// User is immutable: every With method returns a modified copy, so callers
// holding a User (for instance one rebuilt from a cached record) never see
// it change underneath them.
type User struct {
	id         valueobject.UserID
	username   string
	email      valueobject.Email
	password   string
	roles      RoleSet
	provider   valueobject.Provider
	isVerified bool
	// createdAt is assigned by the store; zero until the user is persisted.
	createdAt time.Time

	accountNonExpired     bool
	accountNonLocked      bool
	credentialsNonExpired bool
	enabled               bool
}

// UserParams carries the persisted state needed to rebuild a User.
type UserParams struct {
	ID         valueobject.UserID
	Username   string
	Email      valueobject.Email
	Password   string
	Roles      RoleSet
	Provider   valueobject.Provider
	IsVerified bool
	CreatedAt  time.Time
}

// NewUser builds a user with all account-status flags in the good state.
// A zero ID is replaced with a generated one and an empty provider with local.
func NewUser(p UserParams) User {
	if p.ID.IsZero() {
		p.ID = valueobject.NewUserID()
	}
	if p.Provider == "" {
		p.Provider = valueobject.ProviderLocal
	}
	return User{
		id:                    p.ID,
		username:              p.Username,
		email:                 p.Email,
		password:              p.Password,
		roles:                 p.Roles,
		provider:              p.Provider,
		isVerified:            p.IsVerified,
		createdAt:             p.CreatedAt.UTC(),
		accountNonExpired:     true,
		accountNonLocked:      true,
		credentialsNonExpired: true,
		enabled:               true,
	}
}

func (u User) ID() valueobject.UserID         { return u.id }
func (u User) Username() string               { return u.username }
func (u User) Email() valueobject.Email       { return u.email }
func (u User) Password() string               { return u.password }
func (u User) Roles() RoleSet                 { return u.roles }
func (u User) Provider() valueobject.Provider { return u.provider }
func (u User) IsVerified() bool               { return u.isVerified }
func (u User) CreatedAt() time.Time           { return u.createdAt }
func (u User) IsAccountNonExpired() bool      { return u.accountNonExpired }
func (u User) IsAccountNonLocked() bool       { return u.accountNonLocked }
func (u User) IsCredentialsNonExpired() bool  { return u.credentialsNonExpired }
func (u User) IsEnabled() bool                { return u.enabled }
func (u User) IsAdmin() bool                  { return u.roles.HasAuthority(AuthorityAdmin) }

func (u User) WithUsername(username string) User {
	u.username = username
	return u
}

func (u User) WithEmail(email valueobject.Email) User {
	u.email = email
	return u
}

// WithPassword expects an already hashed password.
func (u User) WithPassword(hash string) User {
	u.password = hash
	return u
}

func (u User) WithRoles(roles RoleSet) User {
	u.roles = roles
	return u
}

func (u User) WithProvider(p valueobject.Provider) User {
	u.provider = p
	return u
}

func (u User) WithVerified(verified bool) User {
	u.isVerified = verified
	return u
}

// WithCreatedAt records the creation time reported by the store.
func (u User) WithCreatedAt(t time.Time) User {
	u.createdAt = t.UTC()
	return u
}

// The account-status flags only move to the bad state.

func (u User) Expire() User {
	u.accountNonExpired = false
	return u
}

func (u User) Lock() User {
	u.accountNonLocked = false
	return u
}

func (u User) ExpireCredentials() User {
	u.credentialsNonExpired = false
	return u
}

func (u User) Disable() User {
	u.enabled = false
	return u
}
