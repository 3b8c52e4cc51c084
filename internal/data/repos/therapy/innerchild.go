package therapy

import (
	"context"

	"github.com/yungbote/souling-backend/internal/data/kv"
	types "github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const CollectionInnerChild = "inner_child_profile"

type InnerChildRepo interface {
	Create(ctx context.Context, p *types.InnerChildProfile) (*types.InnerChildProfile, error)
	// LatestByUserID returns the most recently created profile, or kv.ErrNotFound.
	LatestByUserID(ctx context.Context, userID string) (*types.InnerChildProfile, error)
	ListByUserID(ctx context.Context, userID string) ([]*types.InnerChildProfile, error)
}

type innerChildRepo struct {
	profiles *kv.Collection[types.InnerChildProfile]
	log      *logger.Logger
}

func NewInnerChildRepo(engine kv.Engine, baseLog *logger.Logger) InnerChildRepo {
	return &innerChildRepo{
		profiles: kv.NewCollection[types.InnerChildProfile](engine, CollectionInnerChild),
		log:      baseLog.With("repo", "InnerChildRepo"),
	}
}

func (r *innerChildRepo) Create(ctx context.Context, p *types.InnerChildProfile) (*types.InnerChildProfile, error) {
	if err := r.profiles.Insert(ctx, p.ID, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *innerChildRepo) LatestByUserID(ctx context.Context, userID string) (*types.InnerChildProfile, error) {
	var latest *types.InnerChildProfile
	for p, err := range r.profiles.Find(ctx, byUser(userID)) {
		if err != nil {
			return nil, err
		}
		latest = p
	}
	if latest == nil {
		return nil, kv.ErrNotFound
	}
	return latest, nil
}

func (r *innerChildRepo) ListByUserID(ctx context.Context, userID string) ([]*types.InnerChildProfile, error) {
	return r.profiles.Collect(ctx, byUser(userID))
}

func byUser(userID string) func(*types.InnerChildProfile) bool {
	return func(p *types.InnerChildProfile) bool { return p.UserID == userID }
}
