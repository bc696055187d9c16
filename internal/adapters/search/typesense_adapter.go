package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	tsclient "github.com/nabhacare/backend/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements doctor search using Typesense. Calls go
// through a circuit breaker so a failing search node is skipped quickly.
type TypesenseAdapter struct {
	client  *tsclient.Client
	breaker *gobreaker.CircuitBreaker
}

var _ providers.DoctorSearchProvider = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{
		client:  client,
		breaker: newBreaker("typesense-doctors"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("search circuit breaker changed state")
		},
	})
}

// Index upserts doctor documents
func (a *TypesenseAdapter) Index(ctx context.Context, doctors ...*entities.DoctorProfile) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		for _, doctor := range doctors {
			_, err := a.client.Client().Collection(tsclient.DoctorsCollection).Documents().Upsert(ctx, doctorDocument(doctor))
			if err != nil {
				return nil, fmt.Errorf("failed to index doctor %s: %w", doctor.UserID, err)
			}
		}
		return nil, nil
	})
	return err
}

// Search returns doctors matching query, optionally restricted to a specialty
func (a *TypesenseAdapter) Search(ctx context.Context, query, specialty string, limit int) ([]*entities.DoctorProfile, error) {
	params := searchParams(query, specialty, limit)

	out, err := a.breaker.Execute(func() (interface{}, error) {
		result, err := a.client.Client().Collection(tsclient.DoctorsCollection).Documents().Search(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to search doctors: %w", err)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	result := out.(*api.SearchResult)
	doctors := []*entities.DoctorProfile{}
	if result.Hits == nil {
		return doctors, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doctors = append(doctors, doctorFromDocument(*hit.Document))
	}
	return doctors, nil
}

func searchParams(query, specialty string, limit int) *api.SearchCollectionParams {
	if limit <= 0 {
		limit = 20
	}
	q := strings.TrimSpace(query)
	if q == "" {
		q = "*"
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name,specialties,bio"),
		SortBy:  pointer.String("_text_match:desc,rating:desc"),
		PerPage: pointer.Int(limit),
	}
	if specialty != "" {
		params.FilterBy = pointer.String(fmt.Sprintf("specialties:=`%s`", specialty))
	}
	return params
}

func doctorDocument(doctor *entities.DoctorProfile) map[string]interface{} {
	doc := map[string]interface{}{
		"id":               doctor.UserID,
		"user_id":          doctor.UserID,
		"name":             doctor.Name,
		"specialties":      doctor.Specialties,
		"consultation_fee": doctor.ConsultationFee,
		"rating":           doctor.Rating,
		"is_online":        doctor.IsOnline,
		"updated_at":       doctor.UpdatedAt.Unix(),
	}
	if doctor.Specialties == nil {
		doc["specialties"] = []string{}
	}
	if doctor.Bio != nil {
		doc["bio"] = *doctor.Bio
	}
	return doc
}

func doctorFromDocument(doc map[string]interface{}) *entities.DoctorProfile {
	doctor := &entities.DoctorProfile{Specialties: []string{}}
	doctor.UserID, _ = doc["user_id"].(string)
	doctor.Name, _ = doc["name"].(string)
	if specialties, ok := doc["specialties"].([]interface{}); ok {
		for _, s := range specialties {
			if str, ok := s.(string); ok {
				doctor.Specialties = append(doctor.Specialties, str)
			}
		}
	}
	if bio, ok := doc["bio"].(string); ok {
		doctor.Bio = &bio
	}
	if val, ok := doc["consultation_fee"].(float64); ok {
		doctor.ConsultationFee = val
	}
	if val, ok := doc["rating"].(float64); ok {
		doctor.Rating = val
	}
	if val, ok := doc["is_online"].(bool); ok {
		doctor.IsOnline = val
	}
	if val, ok := doc["updated_at"].(float64); ok {
		doctor.UpdatedAt = time.Unix(int64(val), 0)
	}
	return doctor
}
