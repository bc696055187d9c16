package handlers

import (
	"net/http"

	"github.com/nabhacare/backend/internal/api/middleware"
	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/domain/entities"
)

// PharmacyHandler handles medicine, pharmacy and stock HTTP requests
type PharmacyHandler struct {
	service *services.PharmacyService
}

// NewPharmacyHandler creates a new pharmacy handler
func NewPharmacyHandler(service *services.PharmacyService) *PharmacyHandler {
	return &PharmacyHandler{
		service: service,
	}
}

type updateInventoryRequest struct {
	Quantity *int     `json:"quantity"`
	Price    *float64 `json:"price,omitempty"`
}

// ListMedicines handles GET /api/medicines
func (h *PharmacyHandler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	medicines := h.service.ListMedicines(r.Context())

	respond(w, r, http.StatusOK, map[string]interface{}{
		"medicines": medicines,
		"count":     len(medicines),
	})
}

// AddMedicine handles POST /api/medicines
func (h *PharmacyHandler) AddMedicine(w http.ResponseWriter, r *http.Request) {
	var medicine entities.Medicine
	if !decodeJSON(w, r, &medicine) {
		return
	}

	created, err := h.service.AddMedicine(r.Context(), middleware.CallerFromContext(r.Context()), &medicine)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, map[string]interface{}{
		"medicine": created,
	})
}

// ListPharmacies handles GET /api/pharmacies
func (h *PharmacyHandler) ListPharmacies(w http.ResponseWriter, r *http.Request) {
	pharmacies := h.service.ListPharmacies(r.Context())

	respond(w, r, http.StatusOK, map[string]interface{}{
		"pharmacies": pharmacies,
		"count":      len(pharmacies),
	})
}

// ListInventory handles GET /api/inventory?pharmacy_id=
func (h *PharmacyHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items := h.service.ListInventory(r.Context(), r.URL.Query().Get("pharmacy_id"))

	respond(w, r, http.StatusOK, map[string]interface{}{
		"inventory": items,
		"count":     len(items),
	})
}

// UpdateInventory handles PATCH /api/inventory/{id}
func (h *PharmacyHandler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "inventory ID is required")
		return
	}

	var req updateInventoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		respondWithError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	items, err := h.service.UpdateInventory(r.Context(), middleware.CallerFromContext(r.Context()), id, *req.Quantity, req.Price)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"inventory": items,
		"count":     len(items),
	})
}

// CheckAvailability handles GET /api/inventory/availability?medicine=
func (h *PharmacyHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("medicine")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "medicine parameter is required")
		return
	}

	items := h.service.CheckAvailability(r.Context(), name)

	respond(w, r, http.StatusOK, map[string]interface{}{
		"inventory": items,
		"count":     len(items),
	})
}
