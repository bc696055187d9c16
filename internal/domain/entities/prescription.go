package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PrescriptionItem is a single medicine line written by the doctor
type PrescriptionItem struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
}

// Prescription is stored as a JSON array on the consultation row
type Prescription []PrescriptionItem

// Filled returns the items whose name is not blank
func (p Prescription) Filled() Prescription {
	out := make(Prescription, 0, len(p))
	for _, item := range p {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Value implements driver.Valuer
func (p Prescription) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (p *Prescription) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("prescription: %w", err)
	}
	if raw == nil {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, p)
}

// JSONMap is a free-form JSON object column (record data, availability)
type JSONMap map[string]interface{}

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("json map: %w", err)
	}
	if raw == nil {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

func jsonBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", src)
	}
}

// JSONArray is a free-form JSON array column (record attachments)
type JSONArray []interface{}

// Value implements driver.Valuer
func (a JSONArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *JSONArray) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("json array: %w", err)
	}
	if raw == nil {
		*a = nil
		return nil
	}
	return json.Unmarshal(raw, a)
}
