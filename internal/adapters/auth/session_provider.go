package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
)

// TokenSessionProvider holds the current session token of one client (the
// CLI, or a test harness) and broadcasts session changes to subscribers.
type TokenSessionProvider struct {
	verifier providers.TokenVerifier
	now      func() time.Time

	mu          sync.Mutex
	session     *entities.Session
	subscribers map[chan entities.AuthEvent]struct{}
}

var _ providers.AuthProvider = (*TokenSessionProvider)(nil)

// NewTokenSessionProvider creates a signed-out provider
func NewTokenSessionProvider(verifier providers.TokenVerifier) *TokenSessionProvider {
	return &TokenSessionProvider{
		verifier:    verifier,
		now:         time.Now,
		subscribers: make(map[chan entities.AuthEvent]struct{}),
	}
}

// GetSession returns the current session, or nil when signed out or expired
func (p *TokenSessionProvider) GetSession(ctx context.Context) (*entities.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil || !p.session.ExpiresAt.After(p.now()) {
		return nil, nil
	}
	copied := *p.session
	return &copied, nil
}

// SignIn verifies token and makes it the current session. Signing in again
// as the same user is reported as a token refresh.
func (p *TokenSessionProvider) SignIn(ctx context.Context, token string) (*entities.Session, error) {
	session, err := p.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	eventType := entities.AuthEventSignedIn
	if p.session != nil && p.session.UserID == session.UserID {
		eventType = entities.AuthEventTokenRefreshed
	}
	p.session = session
	p.broadcastLocked(entities.AuthEvent{Type: eventType, Session: session})
	p.mu.Unlock()

	return session, nil
}

// SignOut ends the current session
func (p *TokenSessionProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = nil
	p.broadcastLocked(entities.AuthEvent{Type: entities.AuthEventSignedOut})
	return nil
}

// Subscribe delivers session changes until ctx is cancelled
func (p *TokenSessionProvider) Subscribe(ctx context.Context) (<-chan entities.AuthEvent, error) {
	ch := make(chan entities.AuthEvent, 16)

	p.mu.Lock()
	p.subscribers[ch] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.subscribers, ch)
		close(ch)
		p.mu.Unlock()
	}()

	return ch, nil
}

func (p *TokenSessionProvider) broadcastLocked(event entities.AuthEvent) {
	for ch := range p.subscribers {
		select {
		case ch <- event:
		default:
			log.Warn().Str("event", string(event.Type)).Msg("auth subscriber full, dropping event")
		}
	}
}
