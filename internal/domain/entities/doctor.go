package entities

import "time"

// DoctorProfile is the public listing data of a doctor
type DoctorProfile struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	Specialties     []string  `json:"specialties" db:"specialties"`
	Qualifications  *string   `json:"qualifications,omitempty" db:"qualifications"`
	Bio             *string   `json:"bio,omitempty" db:"bio"`
	ConsultationFee float64   `json:"consultation_fee" db:"consultation_fee"`
	Rating          float64   `json:"rating" db:"rating"`
	IsOnline        bool      `json:"is_online" db:"is_online"`
	Availability    JSONMap   `json:"availability,omitempty" db:"availability"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// HasSpecialty reports whether the doctor lists specialty (exact match)
func (d *DoctorProfile) HasSpecialty(specialty string) bool {
	for _, s := range d.Specialties {
		if s == specialty {
			return true
		}
	}
	return false
}
