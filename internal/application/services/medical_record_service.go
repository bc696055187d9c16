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
	"github.com/nabhacare/backend/internal/loaders"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

// AddMedicalRecordRequest is a record added by hand
type AddMedicalRecordRequest struct {
	PatientID      string                     `json:"patient_id,omitempty"`
	ConsultationID *string                    `json:"consultation_id,omitempty"`
	Type           entities.MedicalRecordType `json:"type"`
	Title          string                     `json:"title"`
	Summary        *string                    `json:"summary,omitempty"`
	Data           entities.JSONMap           `json:"data,omitempty"`
	Files          entities.JSONArray         `json:"files,omitempty"`
}

// RecordExport is a rendered medical record ready for download
type RecordExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// MedicalRecordService handles a patient's medical history
type MedicalRecordService struct {
	repo             repositories.MedicalRecordRepository
	consultationRepo repositories.ConsultationRepository
	profileRepo      repositories.ProfileRepository
	renderer         providers.DocumentRenderer
	notifier         providers.Notifier
}

// NewMedicalRecordService creates a new medical record service
func NewMedicalRecordService(
	repo repositories.MedicalRecordRepository,
	consultationRepo repositories.ConsultationRepository,
	profileRepo repositories.ProfileRepository,
	renderer providers.DocumentRenderer,
	notifier providers.Notifier,
) *MedicalRecordService {
	return &MedicalRecordService{
		repo:             repo,
		consultationRepo: consultationRepo,
		profileRepo:      profileRepo,
		renderer:         renderer,
		notifier:         notifier,
	}
}

// List returns the caller's records, newest first, each with the doctor of
// its consultation. Failures are reported and yield an empty list.
func (s *MedicalRecordService) List(ctx context.Context, caller *entities.Caller) []*entities.MedicalRecordView {
	views := []*entities.MedicalRecordView{}
	if !caller.IsAuthenticated() {
		return views
	}

	records, err := s.repo.ListByPatient(ctx, caller.UserID)
	if err != nil {
		log.Error().Err(err).Str("patient_id", caller.UserID).Msg("failed to list medical records")
		s.notifyError(ctx, "Error fetching records", err)
		return views
	}

	for _, record := range records {
		views = append(views, &entities.MedicalRecordView{MedicalRecord: record})
	}
	s.attachDoctorNames(ctx, views)
	return views
}

// attachDoctorNames fills DoctorName through the request's batch loader
func (s *MedicalRecordService) attachDoctorNames(ctx context.Context, views []*entities.MedicalRecordView) {
	l := loaders.For(ctx)
	if l == nil {
		l = loaders.NewLoaders(s.consultationRepo)
	}

	keys := make([]string, 0, len(views))
	linked := make([]*entities.MedicalRecordView, 0, len(views))
	for _, v := range views {
		if v.ConsultationID == nil || *v.ConsultationID == "" {
			continue
		}
		keys = append(keys, *v.ConsultationID)
		linked = append(linked, v)
	}
	if len(keys) == 0 {
		return
	}

	names, errs := l.DoctorNameLoader.LoadMany(ctx, keys)()
	for i, v := range linked {
		if i < len(errs) && errs[i] != nil {
			log.Warn().Err(errs[i]).Str("consultation_id", keys[i]).Msg("failed to load doctor name")
			continue
		}
		if i < len(names) {
			v.DoctorName = names[i]
		}
	}
}

// Add stores a record in the caller's history. A record linked to a
// consultation goes to that consultation's patient, and only its parties may
// link it. Doctors write into a patient's history only through a
// consultation they hold with that patient.
func (s *MedicalRecordService) Add(ctx context.Context, caller *entities.Caller, req AddMedicalRecordRequest) (*entities.MedicalRecord, error) {
	if !caller.IsAuthenticated() {
		return nil, apperrors.NewUnauthorizedError("not authenticated")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.NewValidationError("title is required")
	}

	patientID := caller.UserID
	if req.ConsultationID != nil && *req.ConsultationID != "" {
		consultation, err := s.consultationRepo.GetByID(ctx, *req.ConsultationID)
		if err != nil {
			return nil, err
		}
		if !consultation.HasParty(caller.UserID) {
			return nil, apperrors.NewForbiddenError("not a participant of this consultation")
		}
		if caller.Role == entities.RoleDoctor && req.PatientID != "" && req.PatientID != consultation.PatientID {
			return nil, apperrors.NewValidationError("patient does not match the consultation")
		}
		patientID = consultation.PatientID
	} else if caller.Role == entities.RoleDoctor && req.PatientID != "" && req.PatientID != caller.UserID {
		return nil, apperrors.NewValidationError("consultation_id is required to add a record for a patient")
	}

	kind := req.Type
	if kind == "" {
		kind = "note"
	}
	if kind == entities.MedicalRecordTypePrescription {
		return nil, apperrors.NewValidationError("prescription records are created by completing a consultation")
	}

	createdBy := caller.UserID
	record := &entities.MedicalRecord{
		ID:             uuid.NewString(),
		PatientID:      patientID,
		ConsultationID: req.ConsultationID,
		Type:           kind,
		Title:          strings.TrimSpace(req.Title),
		Summary:        req.Summary,
		Data:           req.Data,
		Files:          req.Files,
		CreatedBy:      &createdBy,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.notifyError(ctx, "Error", err)
		return nil, err
	}

	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Record added",
		Description: fmt.Sprintf("%s has been added to the medical history.", record.Title),
	})
	return record, nil
}

// Export renders one of the caller's records for download
func (s *MedicalRecordService) Export(ctx context.Context, caller *entities.Caller, id string) (*RecordExport, error) {
	if !caller.IsAuthenticated() {
		return nil, apperrors.NewUnauthorizedError("not authenticated")
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.PatientID != caller.UserID && (record.CreatedBy == nil || *record.CreatedBy != caller.UserID) {
		return nil, apperrors.NewForbiddenError("record belongs to another patient")
	}

	view := &entities.MedicalRecordView{MedicalRecord: record}
	s.attachDoctorNames(ctx, []*entities.MedicalRecordView{view})

	patientName := entities.UnknownPatientName
	if record.PatientID == caller.UserID && caller.Name != "" {
		patientName = caller.Name
	} else if profile, err := s.profileRepo.GetByUserID(ctx, record.PatientID); err == nil {
		patientName = profile.Name
	}

	content, err := s.renderer.RenderRecord(view, patientName)
	if err != nil {
		s.notifyError(ctx, "Error", err)
		return nil, apperrors.NewInternalError("failed to render record", err)
	}

	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Export Successful",
		Description: fmt.Sprintf("%s has been downloaded", record.Title),
	})

	return &RecordExport{
		Filename:    fmt.Sprintf("medical-record-%s.pdf", record.ID),
		ContentType: s.renderer.ContentType(),
		Content:     content,
	}, nil
}

func (s *MedicalRecordService) notifyError(ctx context.Context, title string, err error) {
	s.notifier.Notify(ctx, entities.Notification{
		Title:       title,
		Description: apperrors.PublicMessage(err),
		Variant:     entities.NotificationVariantDestructive,
	})
}
