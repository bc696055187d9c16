package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/domain/entities"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

var (
	patient = &entities.Caller{UserID: "patient-1", Role: entities.RolePatient, Name: "Asha"}
	doctor  = &entities.Caller{UserID: "doctor-1", Role: entities.RoleDoctor, Name: "Dr. Rao"}
)

func scheduledConsultation() *entities.Consultation {
	return &entities.Consultation{
		ID:        "c1",
		PatientID: patient.UserID,
		DoctorID:  doctor.UserID,
		Status:    entities.ConsultationStatusScheduled,
	}
}

func TestConsultationService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("returns rows for caller", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		notifier := &recordingNotifier{}
		svc := services.NewConsultationService(repo, notifier)

		rows := []*entities.ConsultationDetails{{Consultation: *scheduledConsultation(), DoctorName: "Dr. Rao"}}
		repo.On("ListDetails", ctx, entities.RolePatient, "patient-1").Return(rows, nil)

		got := svc.List(ctx, patient)

		assert.Equal(t, rows, got)
		assert.Empty(t, notifier.titles())
	})

	t.Run("failure yields empty list and notification", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		notifier := &recordingNotifier{}
		svc := services.NewConsultationService(repo, notifier)

		repo.On("ListDetails", ctx, entities.RoleDoctor, "doctor-1").Return(nil, errors.New("connection refused"))

		got := svc.List(ctx, doctor)

		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, "Error fetching consultations", notifier.last().Title)
		assert.Equal(t, entities.NotificationVariantDestructive, notifier.last().Variant)
		assert.Equal(t, "internal server error", notifier.last().Description)
	})

	t.Run("anonymous caller gets nothing", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		svc := services.NewConsultationService(repo, &recordingNotifier{})

		assert.Empty(t, svc.List(ctx, nil))
		repo.AssertNotCalled(t, "ListDetails", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConsultationService_Book(t *testing.T) {
	ctx := context.Background()

	t.Run("creates scheduled consultation with companion record", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		notifier := &recordingNotifier{}
		svc := services.NewConsultationService(repo, notifier)

		var gotRecord *entities.MedicalRecord
		repo.On("Book", ctx, mock.AnythingOfType("*entities.Consultation"), mock.AnythingOfType("*entities.MedicalRecord")).
			Run(func(args mock.Arguments) {
				gotRecord = args.Get(2).(*entities.MedicalRecord)
			}).
			Return(nil)

		consultation, err := svc.Book(ctx, patient, services.BookConsultationRequest{
			DoctorID:   "doctor-1",
			DoctorName: "Dr. Rao",
			Symptoms:   "fever",
			Type:       "video",
		})

		require.NoError(t, err)
		assert.Equal(t, entities.ConsultationStatusScheduled, consultation.Status)
		assert.Equal(t, "patient-1", consultation.PatientID)
		require.NotNil(t, consultation.Symptoms)
		assert.Equal(t, "video consultation for: fever", *consultation.Symptoms)
		assert.WithinDuration(t, time.Now(), consultation.ScheduledAt, 5*time.Second)

		require.NotNil(t, gotRecord)
		assert.Equal(t, entities.MedicalRecordTypeConsultation, gotRecord.Type)
		assert.True(t, strings.Contains(gotRecord.Title, "Dr. Rao"))
		require.NotNil(t, gotRecord.ConsultationID)
		assert.Equal(t, consultation.ID, *gotRecord.ConsultationID)
		assert.Equal(t, []string{"Consultation booked"}, notifier.titles())
	})

	t.Run("unauthenticated caller fails before any write", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		svc := services.NewConsultationService(repo, &recordingNotifier{})

		_, err := svc.Book(ctx, &entities.Caller{}, services.BookConsultationRequest{DoctorID: "doctor-1"})

		assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))
		repo.AssertNotCalled(t, "Book", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("past slot rejected", func(t *testing.T) {
		svc := services.NewConsultationService(new(MockConsultationRepository), &recordingNotifier{})
		past := time.Now().Add(-time.Hour)

		_, err := svc.Book(ctx, patient, services.BookConsultationRequest{DoctorID: "doctor-1", ScheduledAt: &past})

		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
	})

	t.Run("storage failure is notified and returned", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		notifier := &recordingNotifier{}
		svc := services.NewConsultationService(repo, notifier)

		conflict := apperrors.NewConflictError("slot already taken")
		repo.On("Book", ctx, mock.Anything, mock.Anything).Return(conflict)

		_, err := svc.Book(ctx, patient, services.BookConsultationRequest{DoctorID: "doctor-1", Symptoms: "cough"})

		assert.ErrorIs(t, err, conflict)
		assert.Equal(t, "Error booking consultation", notifier.last().Title)
	})
}

func TestConsultationService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("applies status and refetches", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		notifier := &recordingNotifier{}
		svc := services.NewConsultationService(repo, notifier)

		notes := strPtr("follow up in a week")
		repo.On("GetByID", ctx, "c1").Return(scheduledConsultation(), nil)
		repo.On("UpdateStatus", ctx, "c1", entities.ConsultationStatusCompleted, notes).Return(nil)
		repo.On("ListDetails", ctx, entities.RoleDoctor, "doctor-1").Return([]*entities.ConsultationDetails{}, nil).Once()

		list := svc.UpdateStatus(ctx, doctor, "c1", entities.ConsultationStatusCompleted, notes)

		assert.NotNil(t, list)
		assert.Empty(t, notifier.titles())
		repo.AssertExpectations(t)
	})

	t.Run("invalid status never reaches storage", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		notifier := &recordingNotifier{}
		svc := services.NewConsultationService(repo, notifier)
		repo.On("ListDetails", ctx, entities.RoleDoctor, "doctor-1").Return([]*entities.ConsultationDetails{}, nil)

		svc.UpdateStatus(ctx, doctor, "c1", entities.ConsultationStatus("archived"), nil)

		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, "Error updating consultation", notifier.last().Title)
	})

	t.Run("storage failure is swallowed", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		notifier := &recordingNotifier{}
		svc := services.NewConsultationService(repo, notifier)

		repo.On("GetByID", ctx, "c1").Return(scheduledConsultation(), nil)
		repo.On("UpdateStatus", ctx, "c1", entities.ConsultationStatusInProgress, (*string)(nil)).
			Return(apperrors.NewConflictError("consultation c1 is completed"))
		repo.On("ListDetails", ctx, entities.RolePatient, "patient-1").Return([]*entities.ConsultationDetails{}, nil)

		assert.NotPanics(t, func() {
			svc.UpdateStatus(ctx, patient, "c1", entities.ConsultationStatusInProgress, nil)
		})
		assert.Equal(t, []string{"Error updating consultation"}, notifier.titles())
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		notifier := &recordingNotifier{}
		svc := services.NewConsultationService(repo, notifier)
		outsider := &entities.Caller{UserID: "someone", Role: entities.RolePatient}

		repo.On("GetByID", ctx, "c1").Return(scheduledConsultation(), nil)
		repo.On("ListDetails", ctx, entities.RolePatient, "someone").Return([]*entities.ConsultationDetails{}, nil)

		svc.UpdateStatus(ctx, outsider, "c1", entities.ConsultationStatusCancelled, nil)

		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, "not a participant of this consultation", notifier.last().Description)
	})
}

func TestConsultationService_StartVideoCall(t *testing.T) {
	ctx := context.Background()

	t.Run("first join assigns room", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		svc := services.NewConsultationService(repo, &recordingNotifier{})

		repo.On("GetByID", ctx, "c1").Return(scheduledConsultation(), nil)
		repo.On("StartVideoCall", ctx, "c1", mock.MatchedBy(func(room string) bool {
			return strings.HasPrefix(room, "consultation-c1-")
		})).Return("consultation-c1-1700000000000", nil)

		roomID, err := svc.StartVideoCall(ctx, patient, "c1")

		require.NoError(t, err)
		assert.Equal(t, "consultation-c1-1700000000000", roomID)
	})

	t.Run("existing room is reused", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		svc := services.NewConsultationService(repo, &recordingNotifier{})

		existing := scheduledConsultation()
		existing.Status = entities.ConsultationStatusInProgress
		existing.RoomID = strPtr("consultation-c1-1")
		repo.On("GetByID", ctx, "c1").Return(existing, nil)
		repo.On("StartVideoCall", ctx, "c1", mock.Anything).Return("consultation-c1-1", nil)

		roomID, err := svc.StartVideoCall(ctx, doctor, "c1")

		require.NoError(t, err)
		assert.Equal(t, "consultation-c1-1", roomID)
	})

	t.Run("terminal consultation rejected", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		notifier := &recordingNotifier{}
		svc := services.NewConsultationService(repo, notifier)

		done := scheduledConsultation()
		done.Status = entities.ConsultationStatusCompleted
		repo.On("GetByID", ctx, "c1").Return(done, nil)

		_, err := svc.StartVideoCall(ctx, patient, "c1")

		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "Error starting video call", notifier.last().Title)
		repo.AssertNotCalled(t, "StartVideoCall", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConsultationService_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("writes one prescription record", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		svc := services.NewConsultationService(repo, &recordingNotifier{})

		repo.On("GetByID", ctx, "c1").Return(scheduledConsultation(), nil)

		var gotPrescription entities.Prescription
		var gotRecord *entities.MedicalRecord
		repo.On("Complete", ctx, "c1", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				assert.Equal(t, "Rest advised", *args.Get(2).(*string))
				gotPrescription = args.Get(3).(entities.Prescription)
				gotRecord = args.Get(4).(*entities.MedicalRecord)
			}).
			Return(nil)

		err := svc.Complete(ctx, doctor, "c1", services.CompleteConsultationRequest{
			Notes: "Rest advised",
			Prescription: entities.Prescription{
				{Name: "Paracetamol", Dosage: "1x2"},
				{Name: "  ", Dosage: "ignored"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, entities.Prescription{{Name: "Paracetamol", Dosage: "1x2"}}, gotPrescription)
		require.NotNil(t, gotRecord)
		assert.Equal(t, entities.MedicalRecordTypePrescription, gotRecord.Type)
		assert.Equal(t, "patient-1", gotRecord.PatientID)
		assert.Equal(t, "c1", *gotRecord.ConsultationID)
	})

	t.Run("no items means no record", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		svc := services.NewConsultationService(repo, &recordingNotifier{})

		repo.On("GetByID", ctx, "c1").Return(scheduledConsultation(), nil)
		repo.On("Complete", ctx, "c1", (*string)(nil), entities.Prescription{}, (*entities.MedicalRecord)(nil)).Return(nil)

		err := svc.Complete(ctx, doctor, "c1", services.CompleteConsultationRequest{})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("patient cannot complete", func(t *testing.T) {
		repo := new(MockConsultationRepository)
		svc := services.NewConsultationService(repo, &recordingNotifier{})
		repo.On("GetByID", ctx, "c1").Return(scheduledConsultation(), nil)

		err := svc.Complete(ctx, patient, "c1", services.CompleteConsultationRequest{Notes: "x"})

		assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))
	})
}

func TestConsultationService_Cancel(t *testing.T) {
	ctx := context.Background()
	repo := new(MockConsultationRepository)
	notifier := &recordingNotifier{}
	svc := services.NewConsultationService(repo, notifier)

	repo.On("GetByID", ctx, "c1").Return(scheduledConsultation(), nil)
	repo.On("Cancel", ctx, "c1").Return(nil)

	require.NoError(t, svc.Cancel(ctx, patient, "c1"))
	assert.Equal(t, []string{"Consultation cancelled"}, notifier.titles())
}

func TestConsultationService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockConsultationRepository)
	svc := services.NewConsultationService(repo, &recordingNotifier{})

	repo.On("GetByID", ctx, "missing").Return(nil, apperrors.NewNotFoundError("consultation with id missing not found"))

	_, err := svc.Get(ctx, patient, "missing")

	assert.True(t, apperrors.IsNotFound(err))
}
