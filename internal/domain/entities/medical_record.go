package entities

import "time"

// MedicalRecordType classifies a record. Values other than the two below
// are allowed for records added by hand.
type MedicalRecordType string

const (
	MedicalRecordTypeConsultation MedicalRecordType = "consultation"
	MedicalRecordTypePrescription MedicalRecordType = "prescription"
)

// MedicalRecord is an entry in a patient's history. Records are never
// edited after creation.
type MedicalRecord struct {
	ID             string            `json:"id" db:"id"`
	PatientID      string            `json:"patient_id" db:"patient_id"`
	ConsultationID *string           `json:"consultation_id,omitempty" db:"consultation_id"`
	Type           MedicalRecordType `json:"type" db:"type"`
	Title          string            `json:"title" db:"title"`
	Summary        *string           `json:"summary,omitempty" db:"summary"`
	Data           JSONMap           `json:"data,omitempty" db:"data"`
	Files          JSONArray         `json:"files,omitempty" db:"files"`
	CreatedBy      *string           `json:"created_by,omitempty" db:"created_by"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// MedicalRecordView is a record plus the name of the doctor of the linked
// consultation, if any.
type MedicalRecordView struct {
	*MedicalRecord
	DoctorName string `json:"doctor_name,omitempty"`
}
