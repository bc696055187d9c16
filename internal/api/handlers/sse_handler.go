package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/api/middleware"
	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/infrastructure/observability"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

const defaultHeartbeatInterval = 30 * time.Second

// SSEHandler streams live consultation state over Server-Sent Events
type SSEHandler struct {
	listener  *services.ConsultationListener
	metrics   *observability.Metrics
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[string]int // consultation id -> open streams
}

// NewSSEHandler creates a new SSE handler. metrics may be nil.
func NewSSEHandler(listener *services.ConsultationListener, metrics *observability.Metrics, heartbeat time.Duration) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}
	return &SSEHandler{
		listener:  listener,
		metrics:   metrics,
		heartbeat: heartbeat,
		clients:   make(map[string]int),
	}
}

// StreamConsultation handles SSE connections for one consultation
// GET /api/stream/consultations/{id}
func (h *SSEHandler) StreamConsultation(w http.ResponseWriter, r *http.Request) {
	consultationID := r.PathValue("id")
	if consultationID == "" {
		respondWithError(w, http.StatusBadRequest, "consultation ID is required")
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	if !caller.IsAuthenticated() {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	watch, err := h.listener.Open(r.Context(), consultationID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	defer watch.Close()

	snapshot := watch.Snapshot()
	if !snapshot.HasParty(caller.UserID) {
		respondWithAppError(w, r, apperrors.NewForbiddenError("not a participant of this consultation"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	h.registerClient(consultationID)
	defer h.unregisterClient(consultationID)
	observability.TrackStreamClient(r.Context(), h.metrics, 1)
	defer observability.TrackStreamClient(r.Context(), h.metrics, -1)

	h.sendEvent(w, "connected", map[string]interface{}{
		"consultation_id": consultationID,
		"timestamp":       time.Now(),
	})
	h.sendEvent(w, "snapshot", snapshot)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("consultation_id", consultationID).Msg("client disconnected from consultation stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case update, ok := <-watch.Updates():
			if !ok {
				return
			}
			h.sendEvent(w, "update", update)
			flusher.Flush()
		}
	}
}

// registerClient counts an open stream for a consultation
func (h *SSEHandler) registerClient(consultationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[consultationID]++
	log.Debug().Str("consultation_id", consultationID).Int("total", h.clients[consultationID]).Msg("stream client registered")
}

// unregisterClient drops an open stream for a consultation
func (h *SSEHandler) unregisterClient(consultationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[consultationID]--
	if h.clients[consultationID] <= 0 {
		delete(h.clients, consultationID)
	}
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of open streams
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}
