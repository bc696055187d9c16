package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nabhacare/backend/internal/api/handlers"
	"github.com/nabhacare/backend/internal/domain/entities"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

func TestProfileHandler_GetMe(t *testing.T) {
	profiles := new(MockProfileRepository)
	handler := handlers.NewProfileHandler(profiles)

	profiles.On("GetByUserID", mock.Anything, "patient-1").Return(&entities.Profile{UserID: "patient-1", Name: "Asha", Role: entities.RolePatient}, nil)
	profiles.On("GetByUserID", mock.Anything, "new-user").Return(nil, apperrors.NewNotFoundError("profile not found"))

	w := httptest.NewRecorder()
	handler.GetMe(w, newRequest(http.MethodGet, "/api/me", "", patientCaller))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Asha", decodeBody(t, w)["profile"].(map[string]interface{})["name"])

	w = httptest.NewRecorder()
	handler.GetMe(w, newRequest(http.MethodGet, "/api/me", "", &entities.Caller{UserID: "new-user"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeBody(t, w)["profile"])

	w = httptest.NewRecorder()
	handler.GetMe(w, newRequest(http.MethodGet, "/api/me", "", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthHandler_Health(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	w := httptest.NewRecorder()
	handlers.NewHealthHandler(map[string]handlers.HealthChecker{"postgres": ok, "redis": ok}).
		Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])

	w = httptest.NewRecorder()
	handlers.NewHealthHandler(map[string]handlers.HealthChecker{"postgres": ok, "redis": down}).
		Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	payload := decodeBody(t, w)
	assert.Equal(t, "degraded", payload["status"])
	assert.Equal(t, "connection refused", payload["dependencies"].(map[string]interface{})["redis"])
}
