package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
)

const warmedDoctorListTTL = 300

// CacheWarmingService keeps the doctor listing hot so the first reader after
// an expiry does not pay for the query
type CacheWarmingService struct {
	doctorRepo repositories.DoctorRepository
	cache      providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service. doctorRepo
// must be the uncached repository.
func NewCacheWarmingService(doctorRepo repositories.DoctorRepository, cache providers.CacheProvider) *CacheWarmingService {
	return &CacheWarmingService{
		doctorRepo: doctorRepo,
		cache:      cache,
	}
}

// WarmCache reloads the doctor listing into the cache
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	doctors, err := s.doctorRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch doctors: %w", err)
	}

	data, err := json.Marshal(doctors)
	if err != nil {
		return fmt.Errorf("failed to marshal doctors: %w", err)
	}

	if err := s.cache.Set(ctx, providers.DoctorsListCacheKey, data, warmedDoctorListTTL); err != nil {
		return fmt.Errorf("failed to cache doctors: %w", err)
	}

	log.Debug().Int("doctors", len(doctors)).Msg("warmed doctor list cache")
	return nil
}

// StartPeriodicWarming warms once, then every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Debug().Msg("stopping cache warming")
				return
			case <-ticker.C:
				if err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}
