package providers

import (
	"context"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// DoctorSearchProvider indexes and searches doctor profiles
type DoctorSearchProvider interface {
	// Index upserts doctor documents
	Index(ctx context.Context, doctors ...*entities.DoctorProfile) error

	// Search returns doctors matching query, optionally restricted to a specialty
	Search(ctx context.Context, query, specialty string, limit int) ([]*entities.DoctorProfile, error)
}
