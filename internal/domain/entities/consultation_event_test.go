package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffRows(t *testing.T) {
	prev := map[string]interface{}{
		"id":           "c1",
		"status":       "scheduled",
		"room_id":      nil,
		"prescription": []interface{}{map[string]interface{}{"name": "A", "dosage": "1"}},
	}
	next := map[string]interface{}{
		"id":           "c1",
		"status":       "in-progress",
		"room_id":      "consultation-c1-1",
		"prescription": []interface{}{map[string]interface{}{"name": "A", "dosage": "1"}},
	}

	changed := DiffRows(prev, next)

	assert.Equal(t, map[string]interface{}{
		"status":  "in-progress",
		"room_id": "consultation-c1-1",
	}, changed)
}

func TestDiffRows_NewKeyCountsAsChanged(t *testing.T) {
	changed := DiffRows(map[string]interface{}{}, map[string]interface{}{"notes": "ok"})
	assert.Equal(t, "ok", changed["notes"])
}

func TestNewConsultationChange(t *testing.T) {
	ev := NewConsultationChange("c1", map[string]interface{}{"status": "completed"})

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "c1", ev.ConsultationID)
	assert.Equal(t, ConsultationEventUpdate, ev.EventType)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestConsultationDetailsApply(t *testing.T) {
	notes := "initial"
	details := &ConsultationDetails{
		Consultation: Consultation{
			ID:     "c1",
			Status: ConsultationStatusScheduled,
			Notes:  &notes,
		},
		PatientName: "Asha",
		DoctorName:  "Dr. Rao",
	}

	err := details.Apply(map[string]interface{}{
		"status":      "in-progress",
		"room_id":     "consultation-c1-1",
		"doctor_name": "should be ignored",
		"updated_at":  "2024-05-01T10:00:00.123456+00:00",
	})

	assert.NoError(t, err)
	assert.Equal(t, ConsultationStatusInProgress, details.Status)
	if assert.NotNil(t, details.RoomID) {
		assert.Equal(t, "consultation-c1-1", *details.RoomID)
	}
	assert.Equal(t, "Dr. Rao", details.DoctorName)
	assert.Equal(t, "Asha", details.PatientName)
	assert.Equal(t, "initial", *details.Notes)
	assert.Equal(t, 2024, details.UpdatedAt.Year())
	assert.Equal(t, "initial", notes)
}

func TestConsultationDetailsApply_DoesNotAliasPrevious(t *testing.T) {
	notes := "before"
	details := &ConsultationDetails{Consultation: Consultation{ID: "c1", Notes: &notes}}
	previous := *details

	assert.NoError(t, details.Apply(map[string]interface{}{"notes": "after"}))

	assert.Equal(t, "after", *details.Notes)
	assert.Equal(t, "before", *previous.Notes)
}
