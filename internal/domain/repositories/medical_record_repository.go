package repositories

import (
	"context"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// MedicalRecordRepository defines the interface for medical record operations
type MedicalRecordRepository interface {
	// Create creates a new medical record
	Create(ctx context.Context, record *entities.MedicalRecord) error

	// GetByID retrieves a medical record by ID
	GetByID(ctx context.Context, id string) (*entities.MedicalRecord, error)

	// ListByPatient retrieves a patient's records, newest first
	ListByPatient(ctx context.Context, patientID string) ([]*entities.MedicalRecord, error)
}
