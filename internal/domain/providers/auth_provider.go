package providers

import (
	"context"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// AuthProvider is the session authority
type AuthProvider interface {
	// GetSession returns the current session, or nil when signed out
	GetSession(ctx context.Context) (*entities.Session, error)

	// Subscribe delivers session changes until ctx is cancelled
	Subscribe(ctx context.Context) (<-chan entities.AuthEvent, error)

	// SignOut ends the current session
	SignOut(ctx context.Context) error
}

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Verify(token string) (*entities.Session, error)
}

// Notifier surfaces a toast to the user
type Notifier interface {
	Notify(ctx context.Context, n entities.Notification)
}

// Navigator moves the user to a route
type Navigator interface {
	Navigate(ctx context.Context, path string)
}
