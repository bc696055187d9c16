package loaders

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders contains the per-request batch loaders
type Loaders struct {
	// DoctorNameLoader resolves a consultation id to its doctor's display name
	DoctorNameLoader *dataloader.Loader[string, string]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(consultationRepo repositories.ConsultationRepository) *Loaders {
	return &Loaders{
		DoctorNameLoader: dataloader.NewBatchedLoader(
			func(ctx context.Context, keys []string) []*dataloader.Result[string] {
				results := make([]*dataloader.Result[string], len(keys))
				names, err := consultationRepo.DoctorNames(ctx, keys)

				for i, key := range keys {
					switch {
					case err != nil:
						results[i] = &dataloader.Result[string]{Error: err}
					case names[key] != "":
						results[i] = &dataloader.Result[string]{Data: names[key]}
					default:
						results[i] = &dataloader.Result[string]{Data: entities.UnknownDoctorName}
					}
				}
				return results
			},
			dataloader.WithWait[string, string](2*time.Millisecond),
		),
	}
}

// For returns the loaders for a given context, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware gives every request its own loaders so cached results never
// leak between callers
func Middleware(consultationRepo repositories.ConsultationRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(consultationRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
