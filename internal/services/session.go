package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/data/repos"
	"github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/observability"
	"github.com/yungbote/souling-backend/internal/platform/llm"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const maxRating = 5

var (
	errScriptChanged    = errors.New("script changed during enhancement")
	errAlreadyCompleted = errors.New("session already completed")
)

type CreateSessionInput struct {
	PatientID   string
	TherapistID string
	SessionType string
	Goals       json.RawMessage
	Memories    json.RawMessage
}

type GenerateScriptInput struct {
	SessionID        string
	PatientProfile   json.RawMessage
	InnerChildData   json.RawMessage
	TherapeuticGoals json.RawMessage
}

type EnhanceScriptInput struct {
	SessionID         string
	TherapistFeedback string
	PatientResponse   string
}

type EnhanceResult struct {
	Session     *domain.Session
	Enhancement *domain.EnhancementRecord
}

type CompleteSessionInput struct {
	SessionID    string
	Rating       *float64
	Breakthrough bool
}

type SessionService interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*domain.Session, error)
	GenerateScript(ctx context.Context, in GenerateScriptInput) (*domain.Session, error)
	EnhanceScript(ctx context.Context, in EnhanceScriptInput) (*EnhanceResult, error)
	CompleteSession(ctx context.Context, in CompleteSessionInput) (*domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListPatientSessions(ctx context.Context, patientID string) ([]*domain.Session, error)
	ListEnhancements(ctx context.Context, sessionID string) ([]*domain.EnhancementRecord, error)
}

type sessionService struct {
	log             *logger.Logger
	userRepo        repos.UserRepo
	therapistRepo   repos.TherapistRepo
	sessionRepo     repos.SessionRepo
	enhancementRepo repos.EnhancementRepo
	gen             llm.Generator
	model           string
}

func NewSessionService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	therapistRepo repos.TherapistRepo,
	sessionRepo repos.SessionRepo,
	enhancementRepo repos.EnhancementRepo,
	gen llm.Generator,
	model string,
) SessionService {
	return &sessionService{
		log:             log.With("service", "SessionService"),
		userRepo:        userRepo,
		therapistRepo:   therapistRepo,
		sessionRepo:     sessionRepo,
		enhancementRepo: enhancementRepo,
		gen:             gen,
		model:           model,
	}
}

func (ss *sessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*domain.Session, error) {
	const op = "session.create"
	patientID := strings.TrimSpace(in.PatientID)
	therapistID := strings.TrimSpace(in.TherapistID)
	sessionType := strings.TrimSpace(in.SessionType)
	if patientID == "" || therapistID == "" {
		return nil, domain.InvalidInput(op, "patientId and therapistId are required")
	}
	if sessionType == "" {
		return nil, domain.InvalidInput(op, "sessionType is required")
	}
	if _, err := ss.userRepo.GetByID(ctx, patientID); err != nil {
		return nil, storeError(op, "patient", err)
	}
	if _, err := ss.therapistRepo.GetByID(ctx, therapistID); err != nil {
		return nil, storeError(op, "therapist", err)
	}

	now := nowUTC()
	s := &domain.Session{
		ID:          newID(),
		PatientID:   patientID,
		TherapistID: therapistID,
		SessionType: sessionType,
		Goals:       in.Goals,
		Memories:    in.Memories,
		Status:      domain.SessionStatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := ss.sessionRepo.Create(ctx, s)
	if err != nil {
		return nil, storeError(op, "session", err)
	}
	ss.log.Info("session scheduled", "session_id", created.ID, "patient_id", patientID, "therapist_id", therapistID)
	return created, nil
}

// GenerateScript reads the session, calls the generator without holding any
// lock, then commits with an update that fails if the session vanished.
func (ss *sessionService) GenerateScript(ctx context.Context, in GenerateScriptInput) (*domain.Session, error) {
	const op = "session.generate_script"
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, domain.InvalidInput(op, "sessionId is required")
	}
	if _, err := ss.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, storeError(op, "session", err)
	}

	text, err := ss.gen.Generate(ctx, llm.Request{
		Model:     ss.model,
		MaxTokens: scriptMaxTokens,
		Prompt:    scriptPrompt(in.PatientProfile, in.InnerChildData, in.TherapeuticGoals),
	})
	if err != nil {
		observability.Current().IncGeneration("script", "error")
		ss.log.Warn("script generation failed", "session_id", sessionID, "error", err)
		return nil, generationError(op, err)
	}
	observability.Current().IncGeneration("script", "ok")

	updated, err := ss.sessionRepo.Update(ctx, sessionID, func(s *domain.Session) error {
		now := nowUTC()
		script := text
		s.Script = &script
		s.ScriptGeneratedAt = &now
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, storeError(op, "session", err)
	}
	return updated, nil
}

// EnhanceScript appends the enhancement record before swapping the script in.
// If the script moved underneath the generation call the record is removed
// again, so every record's originalScript is the previous record's output.
func (ss *sessionService) EnhanceScript(ctx context.Context, in EnhanceScriptInput) (*EnhanceResult, error) {
	const op = "session.enhance_script"
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, domain.InvalidInput(op, "sessionId is required")
	}
	current, err := ss.sessionRepo.GetByID(ctx, sessionID)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, storeError(op, "session", err)
	}
	if err != nil || !current.HasScript() {
		return nil, domain.NewError(domain.CodeNotFound, op, "Session or script not found", err)
	}
	original := *current.Script

	text, err := ss.gen.Generate(ctx, llm.Request{
		Model:     ss.model,
		MaxTokens: enhanceMaxTokens,
		Prompt:    enhancePrompt(original, in.TherapistFeedback, in.PatientResponse),
	})
	if err != nil {
		observability.Current().IncGeneration("enhance", "error")
		ss.log.Warn("script enhancement failed", "session_id", sessionID, "error", err)
		return nil, generationError(op, err)
	}

	record := &domain.EnhancementRecord{
		ID:                newID(),
		SessionID:         sessionID,
		OriginalScript:    original,
		EnhancedScript:    text,
		TherapistFeedback: in.TherapistFeedback,
		PatientResponse:   in.PatientResponse,
		CreatedAt:         nowUTC(),
	}
	if _, err := ss.enhancementRepo.Create(ctx, record); err != nil {
		observability.Current().IncGeneration("enhance", "error")
		return nil, storeError(op, "enhancement", err)
	}

	updated, err := ss.sessionRepo.Update(ctx, sessionID, func(s *domain.Session) error {
		if s.Script == nil || *s.Script != original {
			return errScriptChanged
		}
		script := text
		s.Script = &script
		s.UpdatedAt = nowUTC()
		return nil
	})
	if err != nil {
		undoCtx, cancel := kv.CompensationContext(ctx)
		defer cancel()
		if delErr := ss.enhancementRepo.Delete(undoCtx, record.ID); delErr != nil {
			ss.log.Error("failed to remove orphaned enhancement", "session_id", sessionID, "enhancement_id", record.ID, "error", delErr)
		}
		if errors.Is(err, errScriptChanged) {
			observability.Current().IncGeneration("enhance", "conflict")
			observability.Current().IncStoreConflict(op)
			return nil, domain.NewError(domain.CodeStoreConflict, op, "script was modified concurrently, retry", err)
		}
		observability.Current().IncGeneration("enhance", "error")
		return nil, storeError(op, "session", err)
	}
	observability.Current().IncGeneration("enhance", "ok")
	return &EnhanceResult{Session: updated, Enhancement: record}, nil
}

func (ss *sessionService) CompleteSession(ctx context.Context, in CompleteSessionInput) (*domain.Session, error) {
	const op = "session.complete"
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, domain.InvalidInput(op, "sessionId is required")
	}
	if in.Rating != nil {
		r := *in.Rating
		if math.IsNaN(r) || r < 0 || r > maxRating {
			return nil, domain.InvalidInput(op, "rating must be between 0 and 5")
		}
	}

	updated, err := ss.sessionRepo.Update(ctx, sessionID, func(s *domain.Session) error {
		if s.Completed() {
			return errAlreadyCompleted
		}
		now := nowUTC()
		if in.Rating != nil {
			rating := *in.Rating
			s.Rating = &rating
		}
		s.Breakthrough = in.Breakthrough
		s.Status = domain.SessionStatusCompleted
		s.CompletedAt = &now
		s.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errAlreadyCompleted) {
		return nil, domain.NewError(domain.CodeInvalidInput, op, "session already completed", err)
	}
	if err != nil {
		return nil, storeError(op, "session", err)
	}

	_, err = ss.therapistRepo.Update(ctx, updated.TherapistID, func(p *domain.TherapistProfile) error {
		p.SessionsCount++
		p.UpdatedAt = nowUTC()
		return nil
	})
	if err != nil {
		ss.log.Warn("failed to bump therapist session count", "session_id", sessionID, "therapist_id", updated.TherapistID, "error", err)
	}
	return updated, nil
}

func (ss *sessionService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := ss.sessionRepo.GetByID(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, storeError("session.get", "session", err)
	}
	return s, nil
}

func (ss *sessionService) ListPatientSessions(ctx context.Context, patientID string) ([]*domain.Session, error) {
	sessions, err := ss.sessionRepo.ListByPatientID(ctx, strings.TrimSpace(patientID))
	if err != nil {
		return nil, storeError("session.list_patient", "sessions", err)
	}
	return sessions, nil
}

// ListEnhancements returns the revision chain oldest first.
func (ss *sessionService) ListEnhancements(ctx context.Context, sessionID string) ([]*domain.EnhancementRecord, error) {
	const op = "session.list_enhancements"
	sessionID = strings.TrimSpace(sessionID)
	if _, err := ss.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, storeError(op, "session", err)
	}
	records, err := ss.enhancementRepo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, storeError(op, "enhancements", err)
	}
	return records, nil
}
