package repositories

import (
	"context"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// DoctorRepository defines the interface for doctor listing data
type DoctorRepository interface {
	// ListAll returns every doctor profile
	ListAll(ctx context.Context) ([]*entities.DoctorProfile, error)

	// GetByUserID retrieves the doctor profile for userID
	GetByUserID(ctx context.Context, userID string) (*entities.DoctorProfile, error)

	// Upsert creates or updates the doctor profile keyed by user id
	Upsert(ctx context.Context, doctor *entities.DoctorProfile) error
}
