package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// Mocks

type MockConsultationRepository struct {
	mock.Mock
}

func (m *MockConsultationRepository) ListDetails(ctx context.Context, role entities.Role, userID string) ([]*entities.ConsultationDetails, error) {
	args := m.Called(ctx, role, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ConsultationDetails), args.Error(1)
}

func (m *MockConsultationRepository) GetDetails(ctx context.Context, id string) (*entities.ConsultationDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ConsultationDetails), args.Error(1)
}

func (m *MockConsultationRepository) GetByID(ctx context.Context, id string) (*entities.Consultation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Consultation), args.Error(1)
}

func (m *MockConsultationRepository) Book(ctx context.Context, consultation *entities.Consultation, record *entities.MedicalRecord) error {
	args := m.Called(ctx, consultation, record)
	return args.Error(0)
}

func (m *MockConsultationRepository) UpdateStatus(ctx context.Context, id string, status entities.ConsultationStatus, notes *string) error {
	args := m.Called(ctx, id, status, notes)
	return args.Error(0)
}

func (m *MockConsultationRepository) StartVideoCall(ctx context.Context, id, roomID string) (string, error) {
	args := m.Called(ctx, id, roomID)
	return args.String(0), args.Error(1)
}

func (m *MockConsultationRepository) Complete(ctx context.Context, id string, notes *string, prescription entities.Prescription, record *entities.MedicalRecord) error {
	args := m.Called(ctx, id, notes, prescription, record)
	return args.Error(0)
}

func (m *MockConsultationRepository) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockConsultationRepository) DoctorNames(ctx context.Context, ids []string) (map[string]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type MockMedicalRecordRepository struct {
	mock.Mock
}

func (m *MockMedicalRecordRepository) Create(ctx context.Context, record *entities.MedicalRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockMedicalRecordRepository) GetByID(ctx context.Context, id string) (*entities.MedicalRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MedicalRecord), args.Error(1)
}

func (m *MockMedicalRecordRepository) ListByPatient(ctx context.Context, patientID string) ([]*entities.MedicalRecord, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MedicalRecord), args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByUserID(ctx context.Context, userID string) (*entities.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) ListAll(ctx context.Context) ([]*entities.DoctorProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DoctorProfile), args.Error(1)
}

func (m *MockDoctorRepository) GetByUserID(ctx context.Context, userID string) (*entities.DoctorProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DoctorProfile), args.Error(1)
}

func (m *MockDoctorRepository) Upsert(ctx context.Context, doctor *entities.DoctorProfile) error {
	args := m.Called(ctx, doctor)
	return args.Error(0)
}

type MockPharmacyRepository struct {
	mock.Mock
}

func (m *MockPharmacyRepository) ListMedicines(ctx context.Context) ([]*entities.Medicine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Medicine), args.Error(1)
}

func (m *MockPharmacyRepository) CreateMedicine(ctx context.Context, medicine *entities.Medicine) error {
	args := m.Called(ctx, medicine)
	return args.Error(0)
}

func (m *MockPharmacyRepository) ListActivePharmacies(ctx context.Context) ([]*entities.Pharmacy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Pharmacy), args.Error(1)
}

func (m *MockPharmacyRepository) ListInventory(ctx context.Context, pharmacyID string) ([]*entities.InventoryItem, error) {
	args := m.Called(ctx, pharmacyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.InventoryItem), args.Error(1)
}

func (m *MockPharmacyRepository) UpdateInventory(ctx context.Context, id, ownerUserID string, quantity int, price *float64) (string, error) {
	args := m.Called(ctx, id, ownerUserID, quantity, price)
	return args.String(0), args.Error(1)
}

func (m *MockPharmacyRepository) FindAvailable(ctx context.Context, name string) ([]*entities.InventoryItem, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.InventoryItem), args.Error(1)
}

type MockSearchProvider struct {
	mock.Mock
}

func (m *MockSearchProvider) Index(ctx context.Context, doctors ...*entities.DoctorProfile) error {
	args := m.Called(ctx, doctors)
	return args.Error(0)
}

func (m *MockSearchProvider) Search(ctx context.Context, query, specialty string, limit int) ([]*entities.DoctorProfile, error) {
	args := m.Called(ctx, query, specialty, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DoctorProfile), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ConsultationChange) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ConsultationChange, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(chan *entities.ConsultationChange), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}

// recordingNotifier keeps every toast and navigation in order
type recordingNotifier struct {
	mu            sync.Mutex
	notifications []entities.Notification
	paths         []string
}

func (r *recordingNotifier) Notify(_ context.Context, n entities.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingNotifier) Navigate(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notifications))
	for _, n := range r.notifications {
		out = append(out, n.Title)
	}
	return out
}

func (r *recordingNotifier) last() entities.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notifications) == 0 {
		return entities.Notification{}
	}
	return r.notifications[len(r.notifications)-1]
}

func (r *recordingNotifier) navigations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func strPtr(s string) *string { return &s }
