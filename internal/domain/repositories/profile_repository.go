package repositories

import (
	"context"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// ProfileRepository defines the interface for profile lookups
type ProfileRepository interface {
	// GetByUserID retrieves the profile owned by userID. A missing row is a
	// NOT_FOUND error.
	GetByUserID(ctx context.Context, userID string) (*entities.Profile, error)
}
