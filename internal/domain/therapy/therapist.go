package therapy

import "time"

type TherapistProfile struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Specializations []string  `json:"specializations"`
	Verified        bool      `json:"verified"`
	Rating          float64   `json:"rating"`
	SessionsCount   int       `json:"sessionsCount"`
	Bio             string    `json:"bio,omitempty"`
	Certifications  []string  `json:"certifications,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewTherapistProfile returns the defaults a freshly registered therapist starts with.
func NewTherapistProfile(id, userID string, now time.Time) *TherapistProfile {
	return &TherapistProfile{
		ID:              id,
		UserID:          userID,
		Specializations: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
