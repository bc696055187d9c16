package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/adapters/auth"
	"github.com/nabhacare/backend/internal/adapters/cache"
	"github.com/nabhacare/backend/internal/adapters/database"
	"github.com/nabhacare/backend/internal/adapters/documents"
	"github.com/nabhacare/backend/internal/adapters/events"
	"github.com/nabhacare/backend/internal/adapters/search"
	"github.com/nabhacare/backend/internal/api/handlers"
	"github.com/nabhacare/backend/internal/api/middleware"
	"github.com/nabhacare/backend/internal/api/routes"
	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
	"github.com/nabhacare/backend/internal/infrastructure/clients/postgres"
	"github.com/nabhacare/backend/internal/infrastructure/clients/redis"
	"github.com/nabhacare/backend/internal/infrastructure/clients/typesense"
	"github.com/nabhacare/backend/internal/infrastructure/notifications"
	"github.com/nabhacare/backend/internal/infrastructure/observability"
	"github.com/nabhacare/backend/pkg/secrets"
)

func main() {
	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration, pulling secrets from Vault when enabled
	cfg, err := secrets.LoadConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env)

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis is optional for the API: without it there is no response cache
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; running without cache")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Typesense is optional: doctor search falls back to filtering the listing
	var doctorSearch providers.DoctorSearchProvider
	if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable; doctor search uses the database listing")
		} else {
			if err := typesenseClient.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to init Typesense schema")
			}
			doctorSearch = search.NewTypesenseAdapter(typesenseClient)
		}
	}

	// Initialize adapters
	baseProfiles := database.NewProfileAdapter(pgClient)
	profileRepo := database.NewCachedProfileAdapter(baseProfiles, cfg.Auth.CacheSize)
	consultationRepo := database.NewConsultationAdapter(pgClient)
	medicalRecordRepo := database.NewMedicalRecordAdapter(pgClient)
	pharmacyRepo := database.NewPharmacyAdapter(pgClient)

	baseDoctors := database.NewDoctorAdapter(pgClient)
	var doctorRepo repositories.DoctorRepository = baseDoctors
	if cacheProvider != nil {
		doctorRepo = database.NewCachedDoctorAdapter(baseDoctors, cacheProvider)
		services.NewCacheWarmingService(baseDoctors, cacheProvider).StartPeriodicWarming(ctx, 5*time.Minute)
	}

	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	dispatcher := notifications.NewDispatcher(nil)

	// Initialize services
	consultationService := services.NewConsultationService(consultationRepo, dispatcher)
	doctorService := services.NewDoctorService(doctorRepo, doctorSearch, dispatcher)
	medicalRecordService := services.NewMedicalRecordService(
		medicalRecordRepo,
		consultationRepo,
		baseProfiles,
		documents.NewPDFRenderer(),
		dispatcher,
	)
	pharmacyService := services.NewPharmacyService(pharmacyRepo, dispatcher)

	// The API serves the live room too when the event bus is reachable
	var sseHandler *handlers.SSEHandler
	if redisClient != nil {
		eventBus := events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
		listener := services.NewConsultationListener(consultationRepo, eventBus)
		sseHandler = handlers.NewSSEHandler(listener, metrics, cfg.Realtime.HeartbeatInterval)
	}

	checks := map[string]handlers.HealthChecker{"postgres": pgClient.Ping}
	if redisClient != nil {
		checks["redis"] = redisClient.Ping
	}

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	router := routes.NewRouter(
		routes.Handlers{
			Health:        handlers.NewHealthHandler(checks),
			Profile:       handlers.NewProfileHandler(profileRepo),
			Consultation:  handlers.NewConsultationHandler(consultationService),
			Doctor:        handlers.NewDoctorHandler(doctorService),
			MedicalRecord: handlers.NewMedicalRecordHandler(medicalRecordService),
			Pharmacy:      handlers.NewPharmacyHandler(pharmacyService),
			SSE:           sseHandler,
		},
		verifier,
		profileRepo,
		consultationRepo,
		cacheMiddleware,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // stream responses stay open
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
