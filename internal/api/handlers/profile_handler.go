package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nabhacare/backend/internal/api/middleware"
	"github.com/nabhacare/backend/internal/domain/repositories"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

// ProfileHandler serves the caller's own identity
type ProfileHandler struct {
	profiles repositories.ProfileRepository
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles repositories.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
	}
}

// GetMe handles GET /api/me. A user without a profile row gets a null profile.
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	if !caller.IsAuthenticated() {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	profile, err := h.profiles.GetByUserID(r.Context(), caller.UserID)
	if err != nil && !apperrors.IsNotFound(err) {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"user":    caller,
		"profile": profile,
	})
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker func(ctx context.Context) error

// HealthHandler reports service liveness and dependency status
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler creates a health handler over named checks
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	respondWithJSON(w, code, map[string]interface{}{
		"status":       status,
		"dependencies": results,
		"time":         time.Now().UTC(),
	})
}
