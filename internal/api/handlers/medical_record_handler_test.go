package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nabhacare/backend/internal/api/handlers"
	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/infrastructure/notifications"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

type fakeRenderer struct{}

func (fakeRenderer) RenderRecord(view *entities.MedicalRecordView, patientName string) ([]byte, error) {
	return []byte("%PDF-1.3 " + patientName), nil
}

func (fakeRenderer) ContentType() string { return "application/pdf" }

func newMedicalRecordHandler(records *MockMedicalRecordRepository, consultations *MockConsultationRepository) *handlers.MedicalRecordHandler {
	svc := services.NewMedicalRecordService(records, consultations, new(MockProfileRepository), fakeRenderer{}, notifications.NewDispatcher(nil))
	return handlers.NewMedicalRecordHandler(svc)
}

func TestMedicalRecordHandler_ExportRecord(t *testing.T) {
	t.Run("writes pdf attachment", func(t *testing.T) {
		records := new(MockMedicalRecordRepository)
		handler := newMedicalRecordHandler(records, new(MockConsultationRepository))

		records.On("GetByID", mock.Anything, "r1").Return(&entities.MedicalRecord{
			ID: "r1", PatientID: "patient-1", Title: "Blood test",
		}, nil)

		req := newRequest(http.MethodGet, "/api/medical-records/r1/export", "", patientCaller)
		req.SetPathValue("id", "r1")
		w := httptest.NewRecorder()
		handler.ExportRecord(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="medical-record-r1.pdf"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.3 Asha", w.Body.String())
	})

	t.Run("unknown record", func(t *testing.T) {
		records := new(MockMedicalRecordRepository)
		handler := newMedicalRecordHandler(records, nil)

		records.On("GetByID", mock.Anything, "nope").Return(nil, apperrors.NewNotFoundError("medical record not found"))

		req := newRequest(http.MethodGet, "/api/medical-records/nope/export", "", patientCaller)
		req.SetPathValue("id", "nope")
		w := httptest.NewRecorder()
		handler.ExportRecord(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMedicalRecordHandler_ListAndAdd(t *testing.T) {
	records := new(MockMedicalRecordRepository)
	handler := newMedicalRecordHandler(records, new(MockConsultationRepository))

	records.On("ListByPatient", mock.Anything, "patient-1").Return(nil, errors.New("boom"))
	records.On("Create", mock.Anything, mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	handler.ListRecords(w, newRequest(http.MethodGet, "/api/medical-records", "", patientCaller))
	assert.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)
	assert.Equal(t, float64(0), payload["count"])
	assert.NotEmpty(t, payload["notifications"])

	w = httptest.NewRecorder()
	handler.AddRecord(w, newRequest(http.MethodPost, "/api/medical-records", `{"title":"Blood test","type":"lab"}`, patientCaller))
	assert.Equal(t, http.StatusCreated, w.Code)
}
