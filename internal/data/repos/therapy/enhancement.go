package therapy

import (
	"context"

	"github.com/yungbote/souling-backend/internal/data/kv"
	types "github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const CollectionEnhancements = "enhancement"

type EnhancementRepo interface {
	Create(ctx context.Context, e *types.EnhancementRecord) (*types.EnhancementRecord, error)
	// ListBySessionID returns records in creation order.
	ListBySessionID(ctx context.Context, sessionID string) ([]*types.EnhancementRecord, error)
	// Delete undoes a Create whose session update lost a race.
	Delete(ctx context.Context, enhancementID string) error
}

type enhancementRepo struct {
	records *kv.Collection[types.EnhancementRecord]
	log     *logger.Logger
}

func NewEnhancementRepo(engine kv.Engine, baseLog *logger.Logger) EnhancementRepo {
	return &enhancementRepo{
		records: kv.NewCollection[types.EnhancementRecord](engine, CollectionEnhancements),
		log:     baseLog.With("repo", "EnhancementRepo"),
	}
}

func (r *enhancementRepo) Create(ctx context.Context, e *types.EnhancementRecord) (*types.EnhancementRecord, error) {
	if err := r.records.Insert(ctx, e.ID, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *enhancementRepo) ListBySessionID(ctx context.Context, sessionID string) ([]*types.EnhancementRecord, error) {
	return r.records.Collect(ctx, func(e *types.EnhancementRecord) bool { return e.SessionID == sessionID })
}

func (r *enhancementRepo) Delete(ctx context.Context, enhancementID string) error {
	return r.records.Delete(ctx, enhancementID)
}
