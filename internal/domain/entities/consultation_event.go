package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConsultationEventType mirrors the row-change operation that produced an event
type ConsultationEventType string

const (
	ConsultationEventUpdate ConsultationEventType = "UPDATE"
)

// ConsultationChange is published whenever a consultation row is updated.
// Changed holds only the columns whose value differs from the previous row,
// keyed by column name.
type ConsultationChange struct {
	ID             string                 `json:"id"`
	ConsultationID string                 `json:"consultation_id"`
	EventType      ConsultationEventType  `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Changed        map[string]interface{} `json:"changed_fields"`
}

// NewConsultationChange creates an UPDATE event for a consultation
func NewConsultationChange(consultationID string, changed map[string]interface{}) *ConsultationChange {
	return &ConsultationChange{
		ID:             uuid.NewString(),
		ConsultationID: consultationID,
		EventType:      ConsultationEventUpdate,
		Timestamp:      time.Now(),
		Changed:        changed,
	}
}

// DiffRows returns the keys of next whose value differs from prev.
// Both rows are the decoded JSON form of the same table row.
func DiffRows(prev, next map[string]interface{}) map[string]interface{} {
	changed := make(map[string]interface{})
	for key, value := range next {
		old, ok := prev[key]
		if !ok || !jsonEqual(old, value) {
			changed[key] = value
		}
	}
	return changed
}

func jsonEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !jsonEqual(v, bv[k]) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Apply shallow-merges changed row columns into d. Columns the row does not
// carry (the participant names) are left as they are.
func (d *ConsultationDetails) Apply(changed map[string]interface{}) error {
	if len(changed) == 0 {
		return nil
	}

	current, err := json.Marshal(d)
	if err != nil {
		return err
	}
	merged := make(map[string]interface{})
	if err := json.Unmarshal(current, &merged); err != nil {
		return err
	}
	for key, value := range changed {
		if key == "patient_name" || key == "doctor_name" {
			continue
		}
		merged[key] = value
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	next := *d
	next.Prescription = nil
	next.Symptoms, next.Notes, next.RoomID = nil, nil, nil
	if err := json.Unmarshal(raw, &next); err != nil {
		return err
	}
	*d = next
	return nil
}
