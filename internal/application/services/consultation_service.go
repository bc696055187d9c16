package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

// BookConsultationRequest is a patient's booking form
type BookConsultationRequest struct {
	DoctorID    string                    `json:"doctor_id"`
	DoctorName  string                    `json:"doctor_name"`
	Symptoms    string                    `json:"symptoms"`
	Type        entities.ConsultationType `json:"consultation_type"`
	ScheduledAt *time.Time                `json:"scheduled_at,omitempty"`
}

// CompleteConsultationRequest is the doctor's closing note
type CompleteConsultationRequest struct {
	Notes        string                `json:"notes"`
	Prescription entities.Prescription `json:"prescription"`
}

// ConsultationService drives the consultation lifecycle for one caller
type ConsultationService struct {
	repo     repositories.ConsultationRepository
	notifier providers.Notifier
	now      func() time.Time
}

// NewConsultationService creates a new consultation service
func NewConsultationService(repo repositories.ConsultationRepository, notifier providers.Notifier) *ConsultationService {
	return &ConsultationService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// List returns the caller's consultations, newest scheduled first. It never
// fails: errors are reported to the user and an empty list is returned.
func (s *ConsultationService) List(ctx context.Context, caller *entities.Caller) []*entities.ConsultationDetails {
	if !caller.IsAuthenticated() {
		return []*entities.ConsultationDetails{}
	}

	consultations, err := s.repo.ListDetails(ctx, caller.Role, caller.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", caller.UserID).Msg("failed to list consultations")
		s.notifyError(ctx, "Error fetching consultations", err)
		return []*entities.ConsultationDetails{}
	}
	if consultations == nil {
		consultations = []*entities.ConsultationDetails{}
	}
	return consultations
}

// Book creates a scheduled consultation for the calling patient together
// with its companion medical record.
func (s *ConsultationService) Book(ctx context.Context, caller *entities.Caller, req BookConsultationRequest) (*entities.Consultation, error) {
	if !caller.IsAuthenticated() {
		return nil, apperrors.NewUnauthorizedError("not authenticated")
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		return nil, apperrors.NewValidationError("doctor_id is required")
	}
	if req.DoctorID == caller.UserID {
		return nil, apperrors.NewValidationError("cannot book a consultation with yourself")
	}

	now := s.now()
	scheduledAt := now
	if req.ScheduledAt != nil {
		if req.ScheduledAt.Before(now) {
			return nil, apperrors.NewValidationError("cannot book a consultation in the past")
		}
		scheduledAt = *req.ScheduledAt
	}

	kind := req.Type
	if kind == "" {
		kind = "video"
	}
	doctorName := strings.TrimSpace(req.DoctorName)
	if doctorName == "" {
		doctorName = entities.UnknownDoctorName
	}

	symptoms := entities.FormatSymptoms(kind, req.Symptoms)
	consultation := &entities.Consultation{
		ID:          uuid.NewString(),
		PatientID:   caller.UserID,
		DoctorID:    req.DoctorID,
		ScheduledAt: scheduledAt,
		Status:      entities.ConsultationStatusScheduled,
		Symptoms:    &symptoms,
		CreatedAt:   now,
	}

	createdBy := caller.UserID
	record := &entities.MedicalRecord{
		ID:             uuid.NewString(),
		PatientID:      caller.UserID,
		ConsultationID: &consultation.ID,
		Type:           entities.MedicalRecordTypeConsultation,
		Title:          entities.ConsultationRecordTitle(doctorName),
		Summary:        &symptoms,
		Data: entities.JSONMap{
			"consultation_type": string(kind),
			"doctor_id":         req.DoctorID,
			"scheduled_at":      scheduledAt.Format(time.RFC3339),
		},
		CreatedBy: &createdBy,
		CreatedAt: now,
	}

	if err := s.repo.Book(ctx, consultation, record); err != nil {
		log.Error().Err(err).Str("doctor_id", req.DoctorID).Msg("failed to book consultation")
		s.notifyError(ctx, "Error booking consultation", err)
		return nil, err
	}

	log.Info().
		Str("consultation_id", consultation.ID).
		Str("doctor_id", consultation.DoctorID).
		Msg("consultation booked")
	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Consultation booked",
		Description: fmt.Sprintf("Your consultation with %s has been scheduled.", doctorName),
	})

	return consultation, nil
}

// UpdateStatus applies a status and optional notes, then returns the
// caller's refreshed list. Failures are reported to the user and swallowed.
func (s *ConsultationService) UpdateStatus(ctx context.Context, caller *entities.Caller, id string, status entities.ConsultationStatus, notes *string) []*entities.ConsultationDetails {
	if err := s.updateStatus(ctx, caller, id, status, notes); err != nil {
		log.Warn().Err(err).Str("consultation_id", id).Str("status", string(status)).Msg("failed to update consultation status")
		s.notifyError(ctx, "Error updating consultation", err)
	}
	return s.List(ctx, caller)
}

func (s *ConsultationService) updateStatus(ctx context.Context, caller *entities.Caller, id string, status entities.ConsultationStatus, notes *string) error {
	if !status.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid consultation status %q", status))
	}
	if _, err := s.authorize(ctx, caller, id); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, status, notes)
}

// StartVideoCall moves the consultation in progress and returns its room
// id. The first call assigns the room; later calls get the same one.
func (s *ConsultationService) StartVideoCall(ctx context.Context, caller *entities.Caller, id string) (string, error) {
	consultation, err := s.authorize(ctx, caller, id)
	if err != nil {
		s.notifyError(ctx, "Error starting video call", err)
		return "", err
	}
	if consultation.Status.IsTerminal() {
		err := apperrors.NewConflictError(fmt.Sprintf("consultation %s is %s", id, consultation.Status))
		s.notifyError(ctx, "Error starting video call", err)
		return "", err
	}

	roomID, err := s.repo.StartVideoCall(ctx, id, entities.NewRoomID(id, s.now()))
	if err != nil {
		log.Error().Err(err).Str("consultation_id", id).Msg("failed to start video call")
		s.notifyError(ctx, "Error starting video call", err)
		return "", err
	}

	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Call Started",
		Description: "You are now connected to the consultation room.",
	})
	return roomID, nil
}

// Complete closes the consultation as its doctor. Blank prescription lines
// are dropped; when any remain a prescription record is written.
func (s *ConsultationService) Complete(ctx context.Context, caller *entities.Caller, id string, req CompleteConsultationRequest) error {
	consultation, err := s.authorize(ctx, caller, id)
	if err != nil {
		s.notifyError(ctx, "Error completing consultation", err)
		return err
	}
	if consultation.DoctorID != caller.UserID {
		err := apperrors.NewForbiddenError("only the consulting doctor can complete a consultation")
		s.notifyError(ctx, "Error completing consultation", err)
		return err
	}

	prescription := req.Prescription.Filled()
	var notes *string
	if trimmed := strings.TrimSpace(req.Notes); trimmed != "" {
		notes = &trimmed
	}

	var record *entities.MedicalRecord
	if len(prescription) > 0 {
		createdBy := caller.UserID
		items := make([]interface{}, 0, len(prescription))
		for _, item := range prescription {
			items = append(items, map[string]interface{}{"name": item.Name, "dosage": item.Dosage})
		}
		record = &entities.MedicalRecord{
			ID:             uuid.NewString(),
			PatientID:      consultation.PatientID,
			ConsultationID: &consultation.ID,
			Type:           entities.MedicalRecordTypePrescription,
			Title:          fmt.Sprintf("Prescription from %s", prescriberName(caller)),
			Summary:        notes,
			Data:           entities.JSONMap{"prescription": items},
			CreatedBy:      &createdBy,
			CreatedAt:      s.now(),
		}
	}

	if err := s.repo.Complete(ctx, id, notes, prescription, record); err != nil {
		log.Error().Err(err).Str("consultation_id", id).Msg("failed to complete consultation")
		s.notifyError(ctx, "Error completing consultation", err)
		return err
	}

	log.Info().Str("consultation_id", id).Int("prescription_items", len(prescription)).Msg("consultation completed")
	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Consultation completed",
		Description: "Notes and prescription have been saved.",
	})
	return nil
}

// Cancel withdraws a scheduled consultation
func (s *ConsultationService) Cancel(ctx context.Context, caller *entities.Caller, id string) error {
	if _, err := s.authorize(ctx, caller, id); err != nil {
		s.notifyError(ctx, "Error cancelling consultation", err)
		return err
	}
	if err := s.repo.Cancel(ctx, id); err != nil {
		log.Warn().Err(err).Str("consultation_id", id).Msg("failed to cancel consultation")
		s.notifyError(ctx, "Error cancelling consultation", err)
		return err
	}

	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Consultation cancelled",
		Description: "The consultation has been cancelled.",
	})
	return nil
}

// Get returns one consultation with participant names if the caller takes part in it
func (s *ConsultationService) Get(ctx context.Context, caller *entities.Caller, id string) (*entities.ConsultationDetails, error) {
	if _, err := s.authorize(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.repo.GetDetails(ctx, id)
}

// authorize loads the consultation and checks the caller is one of its parties
func (s *ConsultationService) authorize(ctx context.Context, caller *entities.Caller, id string) (*entities.Consultation, error) {
	if !caller.IsAuthenticated() {
		return nil, apperrors.NewUnauthorizedError("not authenticated")
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("consultation id is required")
	}

	consultation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !consultation.HasParty(caller.UserID) {
		return nil, apperrors.NewForbiddenError("not a participant of this consultation")
	}
	return consultation, nil
}

func (s *ConsultationService) notifyError(ctx context.Context, title string, err error) {
	s.notifier.Notify(ctx, entities.Notification{
		Title:       title,
		Description: apperrors.PublicMessage(err),
		Variant:     entities.NotificationVariantDestructive,
	})
}

func prescriberName(caller *entities.Caller) string {
	if caller.Name != "" {
		return caller.Name
	}
	return entities.UnknownDoctorName
}
