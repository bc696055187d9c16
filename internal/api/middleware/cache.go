package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/infrastructure/notifications"
)

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware caches GET responses of shared catalogue routes. Only
// data that is the same for every caller may be listed here.
type CacheMiddleware struct {
	cache        providers.CacheProvider
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a new cache middleware
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return &CacheMiddleware{
		cache: cache,
		routeConfigs: map[string]CacheConfig{
			"/api/medicines":  {TTLSeconds: 300, Enabled: true},
			"/api/pharmacies": {TTLSeconds: 300, Enabled: true},
		},
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config, ok := m.routeConfigs[r.URL.Path]
		if !ok || !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := cacheKeyFor(r.URL.Path, r.URL.RawQuery)

		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}

		next.ServeHTTP(recorder, r)

		// A read that failed still answers 200 with a toast attached
		if c := notifications.CollectorFromContext(r.Context()); c != nil && len(c.Notifications()) > 0 {
			return
		}
		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

// Invalidate drops every cached response of path, whatever its query
func (m *CacheMiddleware) Invalidate(ctx context.Context, path string) error {
	if m.cache == nil {
		return nil
	}
	n, err := m.cache.DeletePrefix(ctx, cachePrefixFor(path))
	if err != nil {
		return err
	}
	log.Debug().Str("path", path).Int("keys", n).Msg("cached responses invalidated")
	return nil
}

// InvalidateOnWrite drops the cached response of the same path after any
// successful non-GET request
func (m *CacheMiddleware) InvalidateOnWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if r.Method == http.MethodGet || rw.statusCode >= http.StatusBadRequest {
			return
		}
		if _, ok := m.routeConfigs[r.URL.Path]; !ok {
			return
		}
		if err := m.Invalidate(r.Context(), r.URL.Path); err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to invalidate cached response")
		}
	})
}

func cachePrefixFor(path string) string {
	return fmt.Sprintf("http:cache:%s:", path)
}

// cacheKeyFor keeps the path readable so Invalidate can match it by prefix
func cacheKeyFor(path, rawQuery string) string {
	hash := sha256.Sum256([]byte(rawQuery))
	return cachePrefixFor(path) + hex.EncodeToString(hash[:8])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
