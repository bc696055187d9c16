package handlers_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// MockEventBus fans published changes out to in-memory subscribers
type MockEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *entities.ConsultationChange
	published   []*entities.ConsultationChange
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.ConsultationChange),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ConsultationChange) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	channels := append([]chan *entities.ConsultationChange(nil), m.subscribers[channel]...)
	m.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ConsultationChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.ConsultationChange, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	subs := m.subscribers
	m.subscribers = make(map[string][]chan *entities.ConsultationChange)
	m.mu.Unlock()
	for _, channels := range subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	return nil
}

func (m *MockEventBus) SubscriberCount(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers[channel])
}

// MockConsultationRepository is a mock implementation of ConsultationRepository
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

func (m *MockConsultationRepository) DoctorNames(ctx context.Context, consultationIDs []string) (map[string]string, error) {
	args := m.Called(ctx, consultationIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// MockPharmacyRepository is a mock implementation of PharmacyRepository
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

// MockProfileRepository is a mock implementation of ProfileRepository
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

// MockMedicalRecordRepository is a mock implementation of MedicalRecordRepository
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
