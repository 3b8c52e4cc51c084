package therapy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/souling-backend/internal/data/kv"
	types "github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const (
	CollectionTherapists    = "therapist_profile"
	CollectionTherapistUser = "therapist_user"
)

var ErrProfileExists = errors.New("therapist profile already exists for user")

type TherapistRepo interface {
	Create(ctx context.Context, p *types.TherapistProfile) (*types.TherapistProfile, error)
	GetByID(ctx context.Context, therapistID string) (*types.TherapistProfile, error)
	GetByUserID(ctx context.Context, userID string) (*types.TherapistProfile, error)
	List(ctx context.Context) ([]*types.TherapistProfile, error)
	Update(ctx context.Context, therapistID string, mutate func(*types.TherapistProfile) error) (*types.TherapistProfile, error)
	// Delete removes the profile and its user claim. Compensation only.
	Delete(ctx context.Context, therapistID string) error
}

type userClaim struct {
	UserID      string `json:"userId"`
	TherapistID string `json:"therapistId"`
}

type therapistRepo struct {
	profiles *kv.Collection[types.TherapistProfile]
	claims   *kv.Collection[userClaim]
	log      *logger.Logger
}

func NewTherapistRepo(engine kv.Engine, baseLog *logger.Logger) TherapistRepo {
	repoLog := baseLog.With("repo", "TherapistRepo")
	return &therapistRepo{
		profiles: kv.NewCollection[types.TherapistProfile](engine, CollectionTherapists),
		claims:   kv.NewCollection[userClaim](engine, CollectionTherapistUser),
		log:      repoLog,
	}
}

func (r *therapistRepo) Create(ctx context.Context, p *types.TherapistProfile) (*types.TherapistProfile, error) {
	if p == nil || strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.UserID) == "" {
		return nil, fmt.Errorf("therapist id and user id required")
	}
	err := r.claims.Insert(ctx, p.UserID, &userClaim{UserID: p.UserID, TherapistID: p.ID})
	if errors.Is(err, kv.ErrDuplicateID) {
		return nil, ErrProfileExists
	}
	if err != nil {
		return nil, fmt.Errorf("claim therapist user: %w", err)
	}
	if err := r.profiles.Insert(ctx, p.ID, p); err != nil {
		undoCtx, cancel := kv.CompensationContext(ctx)
		defer cancel()
		if delErr := r.claims.Delete(undoCtx, p.UserID); delErr != nil {
			r.log.Error("failed to release therapist claim", "user_id", p.UserID, "error", delErr)
		}
		return nil, fmt.Errorf("insert therapist profile: %w", err)
	}
	return p, nil
}

func (r *therapistRepo) GetByID(ctx context.Context, therapistID string) (*types.TherapistProfile, error) {
	return r.profiles.Get(ctx, therapistID)
}

func (r *therapistRepo) GetByUserID(ctx context.Context, userID string) (*types.TherapistProfile, error) {
	claim, err := r.claims.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.profiles.Get(ctx, claim.TherapistID)
}

func (r *therapistRepo) List(ctx context.Context) ([]*types.TherapistProfile, error) {
	return r.profiles.Collect(ctx, nil)
}

func (r *therapistRepo) Update(ctx context.Context, therapistID string, mutate func(*types.TherapistProfile) error) (*types.TherapistProfile, error) {
	return r.profiles.Update(ctx, therapistID, mutate)
}

func (r *therapistRepo) Delete(ctx context.Context, therapistID string) error {
	p, err := r.profiles.Get(ctx, therapistID)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.profiles.Delete(ctx, therapistID); err != nil {
		return err
	}
	return r.claims.Delete(ctx, p.UserID)
}
