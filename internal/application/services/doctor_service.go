package services

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

const defaultDoctorSearchLimit = 20

// DoctorService handles doctor listing, onboarding and search
type DoctorService struct {
	repo     repositories.DoctorRepository
	search   providers.DoctorSearchProvider
	notifier providers.Notifier
}

// NewDoctorService creates a new doctor service. search may be nil, in
// which case searches filter the full listing.
func NewDoctorService(repo repositories.DoctorRepository, search providers.DoctorSearchProvider, notifier providers.Notifier) *DoctorService {
	return &DoctorService{
		repo:     repo,
		search:   search,
		notifier: notifier,
	}
}

// List returns every doctor. Failures are reported and yield an empty list.
func (s *DoctorService) List(ctx context.Context) []*entities.DoctorProfile {
	doctors, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list doctors")
		s.notifier.Notify(ctx, entities.Notification{
			Title:       "Error fetching doctors",
			Description: apperrors.PublicMessage(err),
			Variant:     entities.NotificationVariantDestructive,
		})
		return []*entities.DoctorProfile{}
	}
	if doctors == nil {
		doctors = []*entities.DoctorProfile{}
	}
	return doctors
}

// GetProfile returns the doctor profile of userID, or nil when none exists
func (s *DoctorService) GetProfile(ctx context.Context, userID string) (*entities.DoctorProfile, error) {
	doctor, err := s.repo.GetByUserID(ctx, userID)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	return doctor, err
}

// UpsertProfile saves the calling doctor's profile and refreshes the search index
func (s *DoctorService) UpsertProfile(ctx context.Context, caller *entities.Caller, doctor *entities.DoctorProfile) (*entities.DoctorProfile, error) {
	if !caller.IsAuthenticated() {
		return nil, apperrors.NewUnauthorizedError("not authenticated")
	}
	if caller.Role != entities.RoleDoctor {
		return nil, apperrors.NewForbiddenError("only doctors can edit a doctor profile")
	}
	if doctor.ConsultationFee < 0 {
		return nil, apperrors.NewValidationError("consultation_fee must not be negative")
	}

	doctor.UserID = caller.UserID
	if strings.TrimSpace(doctor.Name) == "" {
		doctor.Name = caller.Name
	}
	if doctor.Specialties == nil {
		doctor.Specialties = []string{}
	}

	if err := s.repo.Upsert(ctx, doctor); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.Index(ctx, doctor); err != nil {
			log.Warn().Err(err).Str("user_id", doctor.UserID).Msg("failed to index doctor profile")
		}
	}

	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Profile saved",
		Description: "Your doctor profile has been updated.",
	})
	return doctor, nil
}

// Search finds doctors by free text and optional specialty. When the search
// backend fails the full listing is filtered in memory instead.
func (s *DoctorService) Search(ctx context.Context, query, specialty string, limit int) ([]*entities.DoctorProfile, error) {
	if limit <= 0 {
		limit = defaultDoctorSearchLimit
	}

	if s.search != nil {
		doctors, err := s.search.Search(ctx, query, specialty, limit)
		if err == nil {
			return doctors, nil
		}
		log.Warn().Err(err).Str("query", query).Msg("doctor search unavailable, filtering listing")
	}

	doctors, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterDoctors(doctors, query, specialty, limit), nil
}

// Reindex pushes every doctor to the search backend
func (s *DoctorService) Reindex(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, apperrors.NewValidationError("search is not configured")
	}

	doctors, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(doctors) == 0 {
		return 0, nil
	}
	if err := s.search.Index(ctx, doctors...); err != nil {
		return 0, err
	}

	log.Info().Int("count", len(doctors)).Msg("doctors reindexed")
	return len(doctors), nil
}

func filterDoctors(doctors []*entities.DoctorProfile, query, specialty string, limit int) []*entities.DoctorProfile {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "*" {
		needle = ""
	}

	matches := make([]*entities.DoctorProfile, 0)
	for _, d := range doctors {
		if specialty != "" && !d.HasSpecialty(specialty) {
			continue
		}
		if needle != "" && !doctorMatches(d, needle) {
			continue
		}
		matches = append(matches, d)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Rating > matches[j].Rating
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func doctorMatches(d *entities.DoctorProfile, needle string) bool {
	if strings.Contains(strings.ToLower(d.Name), needle) {
		return true
	}
	for _, s := range d.Specialties {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return d.Bio != nil && strings.Contains(strings.ToLower(*d.Bio), needle)
}
