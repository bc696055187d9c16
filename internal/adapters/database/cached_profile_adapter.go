package database

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/repositories"
)

const profileCacheTTL = 5 * time.Minute

// CachedProfileAdapter keeps recently resolved profiles in process. Every
// authenticated request resolves the caller's role, which never changes
// after signup, so a short-lived local cache avoids a query per request.
type CachedProfileAdapter struct {
	adapter repositories.ProfileRepository
	cache   *expirable.LRU[string, *entities.Profile]
}

// NewCachedProfileAdapter creates a profile cache holding at most size entries
func NewCachedProfileAdapter(adapter repositories.ProfileRepository, size int) repositories.ProfileRepository {
	if size <= 0 {
		size = 1024
	}
	return &CachedProfileAdapter{
		adapter: adapter,
		cache:   expirable.NewLRU[string, *entities.Profile](size, nil, profileCacheTTL),
	}
}

// GetByUserID returns a cached profile or loads it. Misses are not cached so
// a profile created right after signup is picked up immediately.
func (a *CachedProfileAdapter) GetByUserID(ctx context.Context, userID string) (*entities.Profile, error) {
	if profile, ok := a.cache.Get(userID); ok {
		return profile, nil
	}

	profile, err := a.adapter.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	a.cache.Add(userID, profile)
	return profile, nil
}
