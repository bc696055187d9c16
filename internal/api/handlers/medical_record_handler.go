package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/nabhacare/backend/internal/api/middleware"
	"github.com/nabhacare/backend/internal/application/services"
)

// MedicalRecordHandler handles medical history HTTP requests
type MedicalRecordHandler struct {
	service *services.MedicalRecordService
}

// NewMedicalRecordHandler creates a new medical record handler
func NewMedicalRecordHandler(service *services.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{
		service: service,
	}
}

// ListRecords handles GET /api/medical-records
func (h *MedicalRecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records := h.service.List(r.Context(), middleware.CallerFromContext(r.Context()))

	respond(w, r, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// AddRecord handles POST /api/medical-records
func (h *MedicalRecordHandler) AddRecord(w http.ResponseWriter, r *http.Request) {
	var req services.AddMedicalRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.service.Add(r.Context(), middleware.CallerFromContext(r.Context()), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, map[string]interface{}{
		"record": record,
	})
}

// ExportRecord handles GET /api/medical-records/{id}/export
func (h *MedicalRecordHandler) ExportRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "record ID is required")
		return
	}

	export, err := h.service.Export(r.Context(), middleware.CallerFromContext(r.Context()), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Content)
}
