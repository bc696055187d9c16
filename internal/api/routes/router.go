package routes

import (
	"net/http"

	"github.com/nabhacare/backend/internal/api/handlers"
	"github.com/nabhacare/backend/internal/api/middleware"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
	"github.com/nabhacare/backend/internal/infrastructure/observability"
	"github.com/nabhacare/backend/internal/loaders"
)

// Handlers groups the route handlers served by the API
type Handlers struct {
	Health        *handlers.HealthHandler
	Profile       *handlers.ProfileHandler
	Consultation  *handlers.ConsultationHandler
	Doctor        *handlers.DoctorHandler
	MedicalRecord *handlers.MedicalRecordHandler
	Pharmacy      *handlers.PharmacyHandler
	SSE           *handlers.SSEHandler
}

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux
	api *http.ServeMux

	handlers Handlers

	verifier         providers.TokenVerifier
	profiles         repositories.ProfileRepository
	consultationRepo repositories.ConsultationRepository

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router. cacheMiddleware and metrics may be nil.
func NewRouter(
	h Handlers,
	verifier providers.TokenVerifier,
	profiles repositories.ProfileRepository,
	consultationRepo repositories.ConsultationRepository,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		api:              http.NewServeMux(),
		handlers:         h,
		verifier:         verifier,
		profiles:         profiles,
		consultationRepo: consultationRepo,
		cacheMiddleware:  cacheMiddleware,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", r.handlers.Health.Health)

	// Identity
	r.api.HandleFunc("GET /api/me", r.handlers.Profile.GetMe)

	// Consultation endpoints
	r.api.HandleFunc("GET /api/consultations", r.handlers.Consultation.ListConsultations)
	r.api.HandleFunc("POST /api/consultations", r.handlers.Consultation.BookConsultation)
	r.api.HandleFunc("GET /api/consultations/{id}", r.handlers.Consultation.GetConsultation)
	r.api.HandleFunc("PATCH /api/consultations/{id}/status", r.handlers.Consultation.UpdateStatus)
	r.api.HandleFunc("POST /api/consultations/{id}/video-call", r.handlers.Consultation.StartVideoCall)
	r.api.HandleFunc("POST /api/consultations/{id}/complete", r.handlers.Consultation.CompleteConsultation)
	r.api.HandleFunc("POST /api/consultations/{id}/cancel", r.handlers.Consultation.CancelConsultation)

	// Live consultation room
	if r.handlers.SSE != nil {
		r.api.HandleFunc("GET /api/stream/consultations/{id}", r.handlers.SSE.StreamConsultation)
	}

	// Doctor endpoints
	r.api.HandleFunc("GET /api/doctors", r.handlers.Doctor.ListDoctors)
	r.api.HandleFunc("GET /api/doctors/search", r.handlers.Doctor.SearchDoctors)
	r.api.HandleFunc("GET /api/doctors/me", r.handlers.Doctor.GetMyProfile)
	r.api.HandleFunc("PUT /api/doctors/me", r.handlers.Doctor.UpsertMyProfile)

	// Medical history endpoints
	r.api.HandleFunc("GET /api/medical-records", r.handlers.MedicalRecord.ListRecords)
	r.api.HandleFunc("POST /api/medical-records", r.handlers.MedicalRecord.AddRecord)
	r.api.HandleFunc("GET /api/medical-records/{id}/export", r.handlers.MedicalRecord.ExportRecord)

	// Pharmacy endpoints
	r.api.HandleFunc("GET /api/medicines", r.handlers.Pharmacy.ListMedicines)
	r.api.HandleFunc("POST /api/medicines", r.handlers.Pharmacy.AddMedicine)
	r.api.HandleFunc("GET /api/pharmacies", r.handlers.Pharmacy.ListPharmacies)
	r.api.HandleFunc("GET /api/inventory", r.handlers.Pharmacy.ListInventory)
	r.api.HandleFunc("GET /api/inventory/availability", r.handlers.Pharmacy.CheckAvailability)
	r.api.HandleFunc("PATCH /api/inventory/{id}", r.handlers.Pharmacy.UpdateInventory)

	// Authenticated API: the cache sits inside the notification collector
	// so failed reads are never stored.
	var api http.Handler = r.api
	if r.cacheMiddleware != nil {
		api = r.cacheMiddleware.Middleware(api)
		api = r.cacheMiddleware.InvalidateOnWrite(api)
	}
	api = loaders.Middleware(r.consultationRepo)(api)
	api = middleware.NotificationMiddleware(api)
	api = middleware.AuthMiddleware(r.verifier, r.profiles)(api)
	r.mux.Handle("/api/", api)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so preflight requests never reach auth
	handler = middleware.CORSMiddleware(handler)

	return handler
}
