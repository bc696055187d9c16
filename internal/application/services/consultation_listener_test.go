package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nabhacare/backend/internal/application/services"
	"github.com/nabhacare/backend/internal/domain/entities"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

func TestConsultationListener_MissingRow(t *testing.T) {
	ctx := context.Background()
	repo := new(MockConsultationRepository)
	bus := new(MockEventBus)
	listener := services.NewConsultationListener(repo, bus)

	repo.On("GetDetails", ctx, "missing").Return(nil, apperrors.NewNotFoundError("consultation with id missing not found"))

	watch, err := listener.Open(ctx, "missing")

	assert.Nil(t, watch)
	assert.True(t, apperrors.IsNotFound(err))
	bus.AssertNotCalled(t, "Subscribe", mock.Anything, mock.Anything)
}

func TestConsultationListener_AppliesUpdates(t *testing.T) {
	ctx := context.Background()
	repo := new(MockConsultationRepository)
	bus := new(MockEventBus)
	listener := services.NewConsultationListener(repo, bus)

	repo.On("GetDetails", ctx, "c1").Return(&entities.ConsultationDetails{
		Consultation: entities.Consultation{ID: "c1", Status: entities.ConsultationStatusScheduled},
		PatientName:  "Asha",
		DoctorName:   "Dr. Rao",
	}, nil)

	events := make(chan *entities.ConsultationChange, 2)
	bus.On("Subscribe", mock.Anything, "consultation:c1").Return(events, nil)

	watch, err := listener.Open(ctx, "c1")
	require.NoError(t, err)
	defer watch.Close()

	assert.Equal(t, entities.ConsultationStatusScheduled, watch.Snapshot().Status)

	events <- entities.NewConsultationChange("c1", map[string]interface{}{
		"status":  "in-progress",
		"room_id": "consultation-c1-1",
	})

	select {
	case got := <-watch.Updates():
		assert.Equal(t, entities.ConsultationStatusInProgress, got.Status)
		assert.Equal(t, "consultation-c1-1", *got.RoomID)
		assert.Equal(t, "Dr. Rao", got.DoctorName)
		assert.Equal(t, "Asha", got.PatientName)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}

	assert.Equal(t, entities.ConsultationStatusInProgress, watch.Snapshot().Status)
}

func TestConsultationListener_CloseEndsUpdates(t *testing.T) {
	ctx := context.Background()
	repo := new(MockConsultationRepository)
	bus := new(MockEventBus)
	listener := services.NewConsultationListener(repo, bus)

	repo.On("GetDetails", ctx, "c1").Return(&entities.ConsultationDetails{
		Consultation: entities.Consultation{ID: "c1", Status: entities.ConsultationStatusScheduled},
	}, nil)
	bus.On("Subscribe", mock.Anything, "consultation:c1").Return(make(chan *entities.ConsultationChange), nil)

	watch, err := listener.Open(ctx, "c1")
	require.NoError(t, err)

	watch.Close()
	watch.Close()

	_, open := <-watch.Updates()
	assert.False(t, open)
}
