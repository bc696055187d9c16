package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/infrastructure/notifications"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respond writes payload along with any toasts and redirect collected
// while serving r
func respond(w http.ResponseWriter, r *http.Request, statusCode int, payload map[string]interface{}) {
	if c := notifications.CollectorFromContext(r.Context()); c != nil {
		if n := c.Notifications(); len(n) > 0 {
			payload["notifications"] = n
		}
		if redirect := c.Redirect(); redirect != "" {
			payload["redirect"] = redirect
		}
	}
	respondWithJSON(w, statusCode, payload)
}

// respondWithAppError maps err onto a status code and a safe message
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := apperrors.TypeOf(err).HTTPStatus()
	if statusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	respond(w, r, statusCode, map[string]interface{}{"error": apperrors.PublicMessage(err)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
