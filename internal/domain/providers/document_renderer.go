package providers

import "github.com/nabhacare/backend/internal/domain/entities"

// DocumentRenderer renders a medical record into a downloadable document
type DocumentRenderer interface {
	RenderRecord(record *entities.MedicalRecordView, patientName string) ([]byte, error)

	// ContentType is the MIME type of the rendered bytes
	ContentType() string
}
