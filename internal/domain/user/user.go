package user

import (
	"strings"
	"time"
)

type Role string

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "therapist"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleTherapist
}

// User is the stored record; PasswordHash never leaves the service layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name,omitempty"`
}

func (u *User) Public() PublicUser {
	if u == nil {
		return PublicUser{}
	}
	return PublicUser{ID: u.ID, Email: u.Email, Role: u.Role, Name: u.Name}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
