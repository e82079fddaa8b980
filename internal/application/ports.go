package application

import (
	"context"
	"time"
)

// Cache is a key/value store with expiry. Values are stored as JSON.
type Cache interface {
	// Get decodes the value under key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hash string) bool
}

// SearchIndexer keeps the search index in step with the primary store.
type SearchIndexer interface {
	IndexUser(ctx context.Context, u *UserResponse) error
	DeleteUser(ctx context.Context, id string) error
}

// Notifier tells the user about account events, usually by email.
type Notifier interface {
	UserCreated(ctx context.Context, u *UserResponse) error
	EmailChanged(ctx context.Context, previousEmail string, u *UserResponse) error
	PasswordChanged(ctx context.Context, u *UserResponse) error
}
