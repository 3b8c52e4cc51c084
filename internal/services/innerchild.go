package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/data/repos"
	"github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/observability"
	"github.com/yungbote/souling-backend/internal/platform/llm"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type CreateProfileInput struct {
	UserID          string
	Age             *int
	Memories        []string
	Characteristics json.RawMessage
}

type InnerChildService interface {
	CreateProfile(ctx context.Context, in CreateProfileInput) (*domain.InnerChildProfile, error)
	GetProfile(ctx context.Context, userID string) (*domain.InnerChildProfile, error)
}

type innerChildService struct {
	log            *logger.Logger
	userRepo       repos.UserRepo
	innerChildRepo repos.InnerChildRepo
	gen            llm.Generator
	model          string
}

func NewInnerChildService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	innerChildRepo repos.InnerChildRepo,
	gen llm.Generator,
	model string,
) InnerChildService {
	return &innerChildService{
		log:            log.With("service", "InnerChildService"),
		userRepo:       userRepo,
		innerChildRepo: innerChildRepo,
		gen:            gen,
		model:          model,
	}
}

func (s *innerChildService) CreateProfile(ctx context.Context, in CreateProfileInput) (*domain.InnerChildProfile, error) {
	const op = "inner_child.create"
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, domain.InvalidInput(op, "userId is required")
	}
	if len(in.Memories) == 0 {
		return nil, domain.InvalidInput(op, "at least one memory is required")
	}
	for _, m := range in.Memories {
		if strings.TrimSpace(m) == "" {
			return nil, domain.InvalidInput(op, "memories must not be blank")
		}
	}
	if in.Age == nil || *in.Age < 0 {
		return nil, domain.InvalidInput(op, "age must be a non-negative integer")
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, storeError(op, "user", err)
	}

	text, err := s.gen.Generate(ctx, llm.Request{
		Model:     s.model,
		MaxTokens: innerChildMaxTokens,
		Prompt:    innerChildPrompt(*in.Age, in.Memories, in.Characteristics),
	})
	if err != nil {
		observability.Current().IncGeneration("inner_child", "error")
		s.log.Warn("inner child generation failed", "user_id", userID, "error", err)
		return nil, generationError(op, err)
	}
	observability.Current().IncGeneration("inner_child", "ok")

	profile := &domain.InnerChildProfile{
		ID:                 newID(),
		UserID:             userID,
		Age:                *in.Age,
		Memories:           in.Memories,
		Characteristics:    in.Characteristics,
		AIGeneratedProfile: text,
		CreatedAt:          nowUTC(),
	}
	created, err := s.innerChildRepo.Create(ctx, profile)
	if err != nil {
		return nil, storeError(op, "inner child profile", err)
	}
	return created, nil
}

// GetProfile returns the most recently created profile for the user.
func (s *innerChildService) GetProfile(ctx context.Context, userID string) (*domain.InnerChildProfile, error) {
	const op = "inner_child.get"
	p, err := s.innerChildRepo.LatestByUserID(ctx, strings.TrimSpace(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, domain.NewError(domain.CodeNotFound, op, "Profile not found", err)
	}
	if err != nil {
		return nil, storeError(op, "inner child profile", err)
	}
	return p, nil
}
