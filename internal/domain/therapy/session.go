package therapy

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
)

type Session struct {
	ID                string          `json:"id"`
	PatientID         string          `json:"patientId"`
	TherapistID       string          `json:"therapistId"`
	SessionType       string          `json:"sessionType"`
	Goals             json.RawMessage `json:"goals"`
	Memories          json.RawMessage `json:"memories"`
	Status            SessionStatus   `json:"status"`
	Script            *string         `json:"script"`
	ScriptGeneratedAt *time.Time      `json:"scriptGeneratedAt,omitempty"`
	Rating            *float64        `json:"rating,omitempty"`
	Breakthrough      bool            `json:"breakthrough"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func (s *Session) HasScript() bool {
	return s != nil && s.Script != nil && *s.Script != ""
}

func (s *Session) Completed() bool {
	return s != nil && s.Status == SessionStatusCompleted
}

// EnhancementRecord is append-only; each one links the script it was built
// from to the script it produced.
type EnhancementRecord struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"sessionId"`
	OriginalScript    string    `json:"originalScript"`
	EnhancedScript    string    `json:"enhancedScript"`
	TherapistFeedback string    `json:"therapistFeedback"`
	PatientResponse   string    `json:"patientResponse"`
	CreatedAt         time.Time `json:"createdAt"`
}
