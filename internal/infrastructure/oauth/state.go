package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultStateTTL bounds how long a user may take at the provider's consent screen.
const DefaultStateTTL = 10 * time.Minute

// StateStore keeps one-time OAuth state values in Redis.
type StateStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStateStore(rdb redis.Cmdable, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{rdb: rdb, ttl: ttl}
}

func stateKey(provider, state string) string {
	return "oauth:state:" + provider + ":" + state
}

// Issue creates a fresh state value bound to provider.
func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	state := uuid.NewString()
	if err := s.rdb.Set(ctx, stateKey(provider, state), "1", s.ttl).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// Consume reports whether state was issued for provider and deletes it.
func (s *StateStore) Consume(ctx context.Context, provider, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	err := s.rdb.GetDel(ctx, stateKey(provider, state)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
