package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/repositories"
	"github.com/nabhacare/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

var medicalRecordColumns = []interface{}{
	"id", "patient_id", "consultation_id", "type", "title", "summary",
	"data", "files", "created_by", "created_at", "updated_at",
}

// MedicalRecordAdapter implements the MedicalRecordRepository interface
type MedicalRecordAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMedicalRecordAdapter creates a new medical record adapter
func NewMedicalRecordAdapter(client *postgres.Client) repositories.MedicalRecordRepository {
	return &MedicalRecordAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new medical record
func (a *MedicalRecordAdapter) Create(ctx context.Context, record *entities.MedicalRecord) error {
	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		return insertMedicalRecord(ctx, a.db, tx, record)
	})
}

// GetByID retrieves a medical record by ID
func (a *MedicalRecordAdapter) GetByID(ctx context.Context, id string) (*entities.MedicalRecord, error) {
	query, args, err := a.db.From("medical_records").
		Select(medicalRecordColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record := &entities.MedicalRecord{}
	err = a.client.DBX().GetContext(ctx, record, query, args...)
	if isMissingRow(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("medical record with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get medical record", err)
	}
	return record, nil
}

// ListByPatient retrieves a patient's records, newest first
func (a *MedicalRecordAdapter) ListByPatient(ctx context.Context, patientID string) ([]*entities.MedicalRecord, error) {
	query, args, err := a.db.From("medical_records").
		Select(medicalRecordColumns...).
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	records := []*entities.MedicalRecord{}
	if err := a.client.DBX().SelectContext(ctx, &records, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list medical records", err)
	}
	return records, nil
}

// insertMedicalRecord writes record inside tx. Booking and completion share it
// so the record lands in the same transaction as the consultation change.
func insertMedicalRecord(ctx context.Context, db *goqu.Database, tx *sql.Tx, record *entities.MedicalRecord) error {
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = record.CreatedAt

	query, args, err := db.Insert("medical_records").Rows(goqu.Record{
		"id":              record.ID,
		"patient_id":      record.PatientID,
		"consultation_id": record.ConsultationID,
		"type":            string(record.Type),
		"title":           record.Title,
		"summary":         record.Summary,
		"data":            record.Data,
		"files":           record.Files,
		"created_by":      record.CreatedBy,
		"created_at":      record.CreatedAt,
		"updated_at":      record.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return wrapWriteError(err, "failed to create medical record")
	}
	return nil
}
