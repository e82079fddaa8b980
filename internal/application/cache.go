package application

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultUserCacheTTL is how long a cached user record lives.
const DefaultUserCacheTTL = 7 * 24 * time.Hour

// UserCacheKey builds the cache key for a user looked up by email or id.
// The trailing space is part of the key.
func UserCacheKey(emailOrID string) string {
	return "user with " + emailOrID + ": "
}

func (s *Service) cacheTTL() time.Duration {
	if s.CacheTTL <= 0 {
		return DefaultUserCacheTTL
	}
	return s.CacheTTL
}

// cacheUser writes resp under both its email key and its id key. The two
// writes run concurrently and a failure of one does not undo the other; a
// stale entry left behind is replaced on the next miss.
func (s *Service) cacheUser(ctx context.Context, resp *UserResponse) error {
	ttl := s.cacheTTL()
	var g errgroup.Group
	g.Go(func() error { return s.Cache.Set(ctx, UserCacheKey(resp.Email), resp, ttl) })
	g.Go(func() error { return s.Cache.Set(ctx, UserCacheKey(resp.ID), resp, ttl) })
	return g.Wait()
}
