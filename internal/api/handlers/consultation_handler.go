package handlers

import (
	"net/http"

	"github.com/nabhacare/backend/internal/api/middleware"
	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/domain/entities"
)

// ConsultationHandler handles consultation lifecycle HTTP requests
type ConsultationHandler struct {
	service *services.ConsultationService
}

// NewConsultationHandler creates a new consultation handler
func NewConsultationHandler(service *services.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{
		service: service,
	}
}

type updateStatusRequest struct {
	Status entities.ConsultationStatus `json:"status"`
	Notes  *string                     `json:"notes,omitempty"`
}

// ListConsultations handles GET /api/consultations
func (h *ConsultationHandler) ListConsultations(w http.ResponseWriter, r *http.Request) {
	consultations := h.service.List(r.Context(), middleware.CallerFromContext(r.Context()))

	respond(w, r, http.StatusOK, map[string]interface{}{
		"consultations": consultations,
		"count":         len(consultations),
	})
}

// GetConsultation handles GET /api/consultations/{id}
func (h *ConsultationHandler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.Get(r.Context(), middleware.CallerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"consultation": details,
	})
}

// BookConsultation handles POST /api/consultations
func (h *ConsultationHandler) BookConsultation(w http.ResponseWriter, r *http.Request) {
	var req services.BookConsultationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	consultation, err := h.service.Book(r.Context(), middleware.CallerFromContext(r.Context()), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, map[string]interface{}{
		"consultation": consultation,
	})
}

// UpdateStatus handles PATCH /api/consultations/{id}/status. Failures are
// reported through notifications and the refreshed list is always returned.
func (h *ConsultationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "consultation ID is required")
		return
	}

	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	consultations := h.service.UpdateStatus(r.Context(), middleware.CallerFromContext(r.Context()), id, req.Status, req.Notes)

	respond(w, r, http.StatusOK, map[string]interface{}{
		"consultations": consultations,
		"count":         len(consultations),
	})
}

// StartVideoCall handles POST /api/consultations/{id}/video-call
func (h *ConsultationHandler) StartVideoCall(w http.ResponseWriter, r *http.Request) {
	roomID, err := h.service.StartVideoCall(r.Context(), middleware.CallerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"room_id": roomID,
	})
}

// CompleteConsultation handles POST /api/consultations/{id}/complete
func (h *ConsultationHandler) CompleteConsultation(w http.ResponseWriter, r *http.Request) {
	var req services.CompleteConsultationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Complete(r.Context(), middleware.CallerFromContext(r.Context()), r.PathValue("id"), req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"status": entities.ConsultationStatusCompleted,
	})
}

// CancelConsultation handles POST /api/consultations/{id}/cancel
func (h *ConsultationHandler) CancelConsultation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), middleware.CallerFromContext(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"status": entities.ConsultationStatusCancelled,
	})
}
