package middleware

import (
	"net/http"

	"github.com/nabhacare/backend/internal/infrastructure/notifications"
)

// NotificationMiddleware gives each request a collector for user toasts
func NotificationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := notifications.WithCollector(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
