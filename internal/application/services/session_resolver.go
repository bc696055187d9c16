package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

// LandingPath is where a signed-out client is sent
const LandingPath = "/"

// SessionState is the resolver's view of who is signed in
type SessionState struct {
	Session *entities.Session
	Profile *entities.Profile
	Loading bool
}

// Caller projects the state onto the identity used by the services
func (s SessionState) Caller() *entities.Caller {
	if s.Session == nil {
		return nil
	}
	caller := &entities.Caller{UserID: s.Session.UserID}
	if s.Profile != nil {
		caller.Role = s.Profile.Role
		caller.Name = s.Profile.Name
	}
	return caller
}

// SessionResolver keeps the current session and its profile in step with
// the auth provider. Each observed session gets a generation number and a
// profile fetch only lands if no newer session was observed meanwhile.
type SessionResolver struct {
	auth      providers.AuthProvider
	profiles  repositories.ProfileRepository
	notifier  providers.Notifier
	navigator providers.Navigator

	mu         sync.Mutex
	generation uint64
	state      SessionState

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionResolver creates a resolver. Nothing happens until Start.
func NewSessionResolver(
	auth providers.AuthProvider,
	profiles repositories.ProfileRepository,
	notifier providers.Notifier,
	navigator providers.Navigator,
) *SessionResolver {
	return &SessionResolver{
		auth:      auth,
		profiles:  profiles,
		notifier:  notifier,
		navigator: navigator,
		state:     SessionState{Loading: true},
	}
}

// Start subscribes to session changes and resolves the current session
func (r *SessionResolver) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	events, err := r.auth.Subscribe(ctx)
	if err != nil {
		cancel()
		return err
	}

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	// The eager read takes its generation before any event is handled, so
	// an event that lands while GetSession is in flight wins.
	eager := r.reserve()

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		for event := range events {
			r.handle(ctx, event)
		}
	}()
	go func() {
		defer r.wg.Done()
		session, err := r.auth.GetSession(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read current session")
			r.mu.Lock()
			if eager == r.generation {
				r.state.Loading = false
			}
			r.mu.Unlock()
			return
		}
		r.observe(ctx, eager, session)
	}()

	return nil
}

// Stop tears the subscription down and waits for in-flight work
func (r *SessionResolver) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// State returns a copy of the current state
func (r *SessionResolver) State() SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SignOut ends the session. The resulting SIGNED_OUT event does the cleanup.
func (r *SessionResolver) SignOut(ctx context.Context) {
	if err := r.auth.SignOut(ctx); err != nil {
		r.notifier.Notify(ctx, entities.Notification{
			Title:       "Error",
			Description: "Failed to sign out",
			Variant:     entities.NotificationVariantDestructive,
		})
	}
}

func (r *SessionResolver) handle(ctx context.Context, event entities.AuthEvent) {
	r.observe(ctx, r.reserve(), event.Session)

	switch event.Type {
	case entities.AuthEventSignedIn:
		r.notifier.Notify(ctx, entities.Notification{
			Title:       "Welcome back!",
			Description: "You've been signed in successfully.",
		})
	case entities.AuthEventSignedOut:
		r.notifier.Notify(ctx, entities.Notification{
			Title:       "Signed out",
			Description: "You've been signed out successfully.",
		})
		r.navigator.Navigate(ctx, LandingPath)
	}
}

// reserve claims the next generation. Only the holder of the latest
// generation may change the state.
func (r *SessionResolver) reserve() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	return r.generation
}

// observe records session as current and resolves its profile, unless a
// newer session was observed after generation was reserved
func (r *SessionResolver) observe(ctx context.Context, generation uint64, session *entities.Session) {
	r.mu.Lock()
	if generation != r.generation {
		r.mu.Unlock()
		return
	}
	r.state.Session = session
	if session == nil {
		r.state.Profile = nil
		r.state.Loading = false
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	profile, err := r.profiles.GetByUserID(ctx, session.UserID)
	switch {
	case err == nil:
	case apperrors.IsNotFound(err):
		profile = nil
	default:
		log.Error().Err(err).Str("user_id", session.UserID).Msg("failed to fetch profile")
		profile = nil
		if ctx.Err() == nil {
			r.notifier.Notify(ctx, entities.Notification{
				Title:       "Error fetching profile",
				Description: apperrors.PublicMessage(err),
				Variant:     entities.NotificationVariantDestructive,
			})
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if generation != r.generation {
		return
	}
	r.state.Profile = profile
	r.state.Loading = false
}
