package entities

import "time"

// Role is fixed at signup
type Role string

const (
	RolePatient  Role = "patient"
	RoleDoctor   Role = "doctor"
	RolePharmacy Role = "pharmacy"
	RoleGovt     Role = "govt"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleDoctor, RolePharmacy, RoleGovt:
		return true
	}
	return false
}

// Profile holds the per-user data shown across the app
type Profile struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Role      Role      `json:"role" db:"role"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Village   *string   `json:"village,omitempty" db:"village"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Caller identifies the authenticated user behind a request
type Caller struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Name   string `json:"name,omitempty"`
}

// IsAuthenticated reports whether the caller carries a user id
func (c *Caller) IsAuthenticated() bool {
	return c != nil && c.UserID != ""
}
