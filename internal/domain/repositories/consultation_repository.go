package repositories

import (
	"context"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// ConsultationRepository defines the interface for consultation data operations.
// Writes that would move a consultation out of a terminal status match no row.
type ConsultationRepository interface {
	// ListDetails returns the caller's consultations with both participant
	// names, newest scheduled first. Roles other than patient and doctor get
	// an empty list.
	ListDetails(ctx context.Context, role entities.Role, userID string) ([]*entities.ConsultationDetails, error)

	// GetDetails returns one consultation joined with participant names
	GetDetails(ctx context.Context, id string) (*entities.ConsultationDetails, error)

	// GetByID retrieves a consultation by ID
	GetByID(ctx context.Context, id string) (*entities.Consultation, error)

	// Book inserts the consultation and its companion record in one transaction
	Book(ctx context.Context, consultation *entities.Consultation, record *entities.MedicalRecord) error

	// UpdateStatus sets status and notes on a non-terminal consultation
	UpdateStatus(ctx context.Context, id string, status entities.ConsultationStatus, notes *string) error

	// StartVideoCall marks the consultation in progress and stores roomID
	// unless a room is already assigned. It returns the stored room id.
	StartVideoCall(ctx context.Context, id, roomID string) (string, error)

	// Complete closes the consultation with notes and prescription and,
	// when record is not nil, inserts the prescription record.
	Complete(ctx context.Context, id string, notes *string, prescription entities.Prescription, record *entities.MedicalRecord) error

	// Cancel moves a scheduled consultation to cancelled
	Cancel(ctx context.Context, id string) error

	// DoctorNames returns the doctor display name keyed by consultation id
	DoctorNames(ctx context.Context, consultationIDs []string) (map[string]string, error)
}
