package handlers

import (
	"net/http"
	"strconv"

	"github.com/nabhacare/backend/internal/api/middleware"
	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/domain/entities"
)

// DoctorHandler handles doctor listing and profile HTTP requests
type DoctorHandler struct {
	service *services.DoctorService
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(service *services.DoctorService) *DoctorHandler {
	return &DoctorHandler{
		service: service,
	}
}

// ListDoctors handles GET /api/doctors
func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors := h.service.List(r.Context())

	respond(w, r, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

// SearchDoctors handles GET /api/doctors/search?q=&specialty=&limit=
func (h *DoctorHandler) SearchDoctors(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	doctors, err := h.service.Search(r.Context(), query.Get("q"), query.Get("specialty"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

// GetMyProfile handles GET /api/doctors/me. A doctor who has not onboarded
// yet gets a null profile.
func (h *DoctorHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	doctor, err := h.service.GetProfile(r.Context(), caller.UserID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"doctor": doctor,
	})
}

// UpsertMyProfile handles PUT /api/doctors/me
func (h *DoctorHandler) UpsertMyProfile(w http.ResponseWriter, r *http.Request) {
	var doctor entities.DoctorProfile
	if !decodeJSON(w, r, &doctor) {
		return
	}

	saved, err := h.service.UpsertProfile(r.Context(), middleware.CallerFromContext(r.Context()), &doctor)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"doctor": saved,
	})
}
