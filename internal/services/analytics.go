package services

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/yungbote/souling-backend/internal/data/repos"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

// Progress summarizes a patient's sessions. AverageRating is NaN when the
// patient has no sessions.
type Progress struct {
	TotalSessions          int     `json:"totalSessions"`
	CompletedSessions      int     `json:"completedSessions"`
	EmotionalBreakthroughs int     `json:"emotionalBreakthroughs"`
	AverageRating          float64 `json:"averageRating"`
}

// MarshalJSON emits null plus averageRatingIsNaN for the NaN average.
func (p Progress) MarshalJSON() ([]byte, error) {
	out := struct {
		TotalSessions          int      `json:"totalSessions"`
		CompletedSessions      int      `json:"completedSessions"`
		EmotionalBreakthroughs int      `json:"emotionalBreakthroughs"`
		AverageRating          *float64 `json:"averageRating"`
		AverageRatingIsNaN     bool     `json:"averageRatingIsNaN"`
	}{
		TotalSessions:          p.TotalSessions,
		CompletedSessions:      p.CompletedSessions,
		EmotionalBreakthroughs: p.EmotionalBreakthroughs,
	}
	if math.IsNaN(p.AverageRating) {
		out.AverageRatingIsNaN = true
	} else {
		avg := p.AverageRating
		out.AverageRating = &avg
	}
	return json.Marshal(out)
}

type AnalyticsService interface {
	PatientProgress(ctx context.Context, patientID string) (*Progress, error)
}

type analyticsService struct {
	log         *logger.Logger
	sessionRepo repos.SessionRepo
}

func NewAnalyticsService(log *logger.Logger, sessionRepo repos.SessionRepo) AnalyticsService {
	return &analyticsService{log: log.With("service", "AnalyticsService"), sessionRepo: sessionRepo}
}

// PatientProgress averages over every session; unrated sessions count as 0.
func (s *analyticsService) PatientProgress(ctx context.Context, patientID string) (*Progress, error) {
	sessions, err := s.sessionRepo.ListByPatientID(ctx, strings.TrimSpace(patientID))
	if err != nil {
		return nil, storeError("analytics.patient_progress", "sessions", err)
	}
	p := &Progress{TotalSessions: len(sessions)}
	var sum float64
	for _, sess := range sessions {
		if sess.Completed() {
			p.CompletedSessions++
		}
		if sess.Breakthrough {
			p.EmotionalBreakthroughs++
		}
		if sess.Rating != nil {
			sum += *sess.Rating
		}
	}
	if p.TotalSessions == 0 {
		p.AverageRating = math.NaN()
	} else {
		p.AverageRating = sum / float64(p.TotalSessions)
	}
	return p, nil
}
