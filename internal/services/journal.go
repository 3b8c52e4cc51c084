package services

import (
	"context"
	"strings"

	"github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/observability"
	"github.com/yungbote/souling-backend/internal/platform/llm"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type JournalInput struct {
	UserID    string
	Entry     string
	SessionID string
}

// JournalService turns a journal entry into insights. Nothing is stored.
type JournalService interface {
	AnalyzeEntry(ctx context.Context, in JournalInput) (string, error)
}

type journalService struct {
	log   *logger.Logger
	gen   llm.Generator
	model string
}

func NewJournalService(log *logger.Logger, gen llm.Generator, model string) JournalService {
	return &journalService{log: log.With("service", "JournalService"), gen: gen, model: model}
}

func (s *journalService) AnalyzeEntry(ctx context.Context, in JournalInput) (string, error) {
	const op = "journal.analyze"
	if strings.TrimSpace(in.Entry) == "" {
		return "", domain.InvalidInput(op, "entry is required")
	}
	text, err := s.gen.Generate(ctx, llm.Request{
		Model:     s.model,
		MaxTokens: journalMaxTokens,
		Prompt:    journalPrompt(in.Entry),
	})
	if err != nil {
		observability.Current().IncGeneration("journal", "error")
		s.log.Warn("journal analysis failed", "user_id", in.UserID, "session_id", in.SessionID, "error", err)
		return "", generationError(op, err)
	}
	observability.Current().IncGeneration("journal", "ok")
	return text, nil
}
