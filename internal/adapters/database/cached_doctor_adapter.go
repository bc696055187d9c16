package database

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
)

// Cache TTLs (in seconds)
const (
	doctorsListTTL = 120
)

// DoctorsListCacheKey is the cache key of the full doctor listing
const DoctorsListCacheKey = providers.DoctorsListCacheKey

// CachedDoctorAdapter wraps a DoctorRepository with a read-through cache of
// the doctor listing. Writes invalidate the listing.
type CachedDoctorAdapter struct {
	adapter repositories.DoctorRepository
	cache   providers.CacheProvider
}

// NewCachedDoctorAdapter creates a new cached doctor adapter
func NewCachedDoctorAdapter(adapter repositories.DoctorRepository, cache providers.CacheProvider) repositories.DoctorRepository {
	return &CachedDoctorAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// ListAll returns the doctor listing from cache when present
func (a *CachedDoctorAdapter) ListAll(ctx context.Context) ([]*entities.DoctorProfile, error) {
	if cached, err := a.cache.Get(ctx, DoctorsListCacheKey); err == nil {
		var doctors []*entities.DoctorProfile
		if err := json.Unmarshal(cached, &doctors); err == nil {
			return doctors, nil
		}
		log.Warn().Err(err).Msg("failed to unmarshal cached doctor list")
	}

	doctors, err := a.adapter.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(doctors); err == nil {
		if err := a.cache.Set(ctx, DoctorsListCacheKey, data, doctorsListTTL); err != nil {
			log.Warn().Err(err).Msg("failed to cache doctor list")
		}
	}

	return doctors, nil
}

// GetByUserID is not cached; onboarding reads its own writes
func (a *CachedDoctorAdapter) GetByUserID(ctx context.Context, userID string) (*entities.DoctorProfile, error) {
	return a.adapter.GetByUserID(ctx, userID)
}

// Upsert writes through and drops the cached listing
func (a *CachedDoctorAdapter) Upsert(ctx context.Context, doctor *entities.DoctorProfile) error {
	if err := a.adapter.Upsert(ctx, doctor); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, DoctorsListCacheKey); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate doctor list cache")
	}
	return nil
}
