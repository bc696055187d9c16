package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

type contextKey string

const callerKey contextKey = "caller"

// WithCaller returns a copy of ctx carrying caller
func WithCaller(ctx context.Context, caller *entities.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the authenticated caller, or nil
func CallerFromContext(ctx context.Context) *entities.Caller {
	caller, _ := ctx.Value(callerKey).(*entities.Caller)
	return caller
}

// AuthMiddleware verifies the bearer token and resolves the caller's role
// from their profile. A user without a profile is authenticated with no role.
func AuthMiddleware(verifier providers.TokenVerifier, profiles repositories.ProfileRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			session, err := verifier.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			caller := &entities.Caller{UserID: session.UserID}
			profile, err := profiles.GetByUserID(r.Context(), session.UserID)
			switch {
			case err == nil:
				caller.Role = profile.Role
				caller.Name = profile.Name
			case apperrors.IsNotFound(err):
			default:
				log.Error().Err(err).Str("user_id", session.UserID).Msg("failed to resolve caller profile")
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// bearerToken reads the token from the Authorization header. EventSource
// cannot set headers, so stream requests may pass it as access_token.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if token := r.URL.Query().Get("access_token"); token != "" && strings.HasPrefix(r.URL.Path, "/api/stream/") {
			return token, true
		}
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
