package domain

import (
	"github.com/yungbote/souling-backend/internal/domain/therapy"
	"github.com/yungbote/souling-backend/internal/domain/user"
)

const (
	RolePatient   = user.RolePatient
	RoleTherapist = user.RoleTherapist

	SessionStatusScheduled = therapy.SessionStatusScheduled
	SessionStatusCompleted = therapy.SessionStatusCompleted
)

type Role = user.Role
type User = user.User
type PublicUser = user.PublicUser

type TherapistProfile = therapy.TherapistProfile
type InnerChildProfile = therapy.InnerChildProfile
type Session = therapy.Session
type SessionStatus = therapy.SessionStatus
type EnhancementRecord = therapy.EnhancementRecord

var (
	NewTherapistProfile = therapy.NewTherapistProfile
	NormalizeEmail      = user.NormalizeEmail
)
