package entities

import (
	"fmt"
	"time"
)

// ConsultationStatus represents the lifecycle state of a consultation
type ConsultationStatus string

const (
	ConsultationStatusScheduled  ConsultationStatus = "scheduled"
	ConsultationStatusInProgress ConsultationStatus = "in-progress"
	ConsultationStatusCompleted  ConsultationStatus = "completed"
	ConsultationStatusCancelled  ConsultationStatus = "cancelled"
)

// Fallback display names used when a participant's profile is missing
const (
	UnknownDoctorName  = "Unknown Doctor"
	UnknownPatientName = "Unknown Patient"
)

var consultationTransitions = map[ConsultationStatus][]ConsultationStatus{
	ConsultationStatusScheduled: {
		ConsultationStatusInProgress,
		ConsultationStatusCompleted,
		ConsultationStatusCancelled,
	},
	ConsultationStatusInProgress: {
		ConsultationStatusCompleted,
	},
}

// IsValid reports whether s is one of the known statuses
func (s ConsultationStatus) IsValid() bool {
	switch s {
	case ConsultationStatusScheduled, ConsultationStatusInProgress,
		ConsultationStatusCompleted, ConsultationStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s
func (s ConsultationStatus) IsTerminal() bool {
	return s == ConsultationStatusCompleted || s == ConsultationStatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s ConsultationStatus) CanTransitionTo(next ConsultationStatus) bool {
	for _, allowed := range consultationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ConsultationType is the medium the patient asked for at booking time
// (video, audio, chat). It only shapes the stored symptoms text.
type ConsultationType string

// Consultation is a single booked session between one patient and one doctor
type Consultation struct {
	ID           string             `json:"id" db:"id"`
	PatientID    string             `json:"patient_id" db:"patient_id"`
	DoctorID     string             `json:"doctor_id" db:"doctor_id"`
	ScheduledAt  time.Time          `json:"scheduled_at" db:"scheduled_at"`
	Status       ConsultationStatus `json:"status" db:"status"`
	Symptoms     *string            `json:"symptoms,omitempty" db:"symptoms"`
	Notes        *string            `json:"notes,omitempty" db:"notes"`
	Prescription Prescription       `json:"prescription,omitempty" db:"prescription"`
	RoomID       *string            `json:"room_id,omitempty" db:"room_id"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`
}

// HasParty reports whether userID is the patient or the doctor
func (c *Consultation) HasParty(userID string) bool {
	return userID != "" && (c.PatientID == userID || c.DoctorID == userID)
}

// ConsultationDetails is a consultation joined with both participants'
// display names. It is the only shape the list and detail reads return.
type ConsultationDetails struct {
	Consultation
	PatientName string `json:"patient_name" db:"patient_name"`
	DoctorName  string `json:"doctor_name" db:"doctor_name"`
}

// FormatSymptoms builds the stored symptoms text for a new booking
func FormatSymptoms(kind ConsultationType, symptoms string) string {
	return fmt.Sprintf("%s consultation for: %s", kind, symptoms)
}

// ConsultationRecordTitle is the title of the medical record created with a booking
func ConsultationRecordTitle(doctorName string) string {
	return "Consultation with " + doctorName
}

// NewRoomID derives the video room identifier for a consultation
func NewRoomID(consultationID string, now time.Time) string {
	return fmt.Sprintf("consultation-%s-%d", consultationID, now.UnixMilli())
}
