package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/repositories"
	"github.com/nabhacare/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

var doctorColumns = []interface{}{
	"id", "user_id", "name", "specialties", "qualifications", "bio",
	"consultation_fee", "rating", "is_online", "availability",
	"created_at", "updated_at",
}

// DoctorAdapter implements the DoctorRepository interface
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListAll returns every doctor through get_all_doctors
func (a *DoctorAdapter) ListAll(ctx context.Context) ([]*entities.DoctorProfile, error) {
	query, args, err := a.db.From(goqu.Func("get_all_doctors")).
		Select(doctorColumns...).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	doctors := []*entities.DoctorProfile{}
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, doctor)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate doctors", err)
	}

	return doctors, nil
}

// GetByUserID retrieves the doctor profile for userID
func (a *DoctorAdapter) GetByUserID(ctx context.Context, userID string) (*entities.DoctorProfile, error) {
	query, args, err := a.db.From("doctors").
		Select(doctorColumns...).
		Where(goqu.Ex{"user_id": userID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor, err := scanDoctor(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor profile for user %s not found", userID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor profile", err)
	}
	return doctor, nil
}

// Upsert creates or updates the doctor profile keyed by user id
func (a *DoctorAdapter) Upsert(ctx context.Context, doctor *entities.DoctorProfile) error {
	now := time.Now()
	if doctor.ID == "" {
		doctor.ID = uuid.NewString()
	}
	if doctor.CreatedAt.IsZero() {
		doctor.CreatedAt = now
	}
	doctor.UpdatedAt = now

	query, args, err := a.db.Insert("doctors").
		Rows(goqu.Record{
			"id":               doctor.ID,
			"user_id":          doctor.UserID,
			"name":             doctor.Name,
			"specialties":      pq.StringArray(doctor.Specialties),
			"qualifications":   doctor.Qualifications,
			"bio":              doctor.Bio,
			"consultation_fee": doctor.ConsultationFee,
			"rating":           doctor.Rating,
			"is_online":        doctor.IsOnline,
			"availability":     doctor.Availability,
			"created_at":       doctor.CreatedAt,
			"updated_at":       doctor.UpdatedAt,
		}).
		OnConflict(goqu.DoUpdate("user_id", goqu.Record{
			"name":             goqu.L("EXCLUDED.name"),
			"specialties":      goqu.L("EXCLUDED.specialties"),
			"qualifications":   goqu.L("EXCLUDED.qualifications"),
			"bio":              goqu.L("EXCLUDED.bio"),
			"consultation_fee": goqu.L("EXCLUDED.consultation_fee"),
			"is_online":        goqu.L("EXCLUDED.is_online"),
			"availability":     goqu.L("EXCLUDED.availability"),
			"updated_at":       goqu.L("EXCLUDED.updated_at"),
		})).
		Returning("id", "created_at").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&doctor.ID, &doctor.CreatedAt); err != nil {
		return wrapWriteError(err, "failed to save doctor profile")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDoctor(row rowScanner) (*entities.DoctorProfile, error) {
	doctor := &entities.DoctorProfile{}
	var qualifications, bio sql.NullString
	var fee, rating sql.NullFloat64
	var online sql.NullBool

	err := row.Scan(
		&doctor.ID,
		&doctor.UserID,
		&doctor.Name,
		pq.Array(&doctor.Specialties),
		&qualifications,
		&bio,
		&fee,
		&rating,
		&online,
		&doctor.Availability,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if qualifications.Valid {
		doctor.Qualifications = &qualifications.String
	}
	if bio.Valid {
		doctor.Bio = &bio.String
	}
	doctor.ConsultationFee = fee.Float64
	doctor.Rating = rating.Float64
	doctor.IsOnline = online.Bool
	if doctor.Specialties == nil {
		doctor.Specialties = []string{}
	}

	return doctor, nil
}
