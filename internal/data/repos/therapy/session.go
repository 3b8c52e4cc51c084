package therapy

import (
	"context"

	"github.com/yungbote/souling-backend/internal/data/kv"
	types "github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const CollectionSessions = "session"

type SessionRepo interface {
	Create(ctx context.Context, s *types.Session) (*types.Session, error)
	GetByID(ctx context.Context, sessionID string) (*types.Session, error)
	ListByPatientID(ctx context.Context, patientID string) ([]*types.Session, error)
	// Update is atomic per session; mutate may be re-run on contention.
	Update(ctx context.Context, sessionID string, mutate func(*types.Session) error) (*types.Session, error)
}

type sessionRepo struct {
	sessions *kv.Collection[types.Session]
	log      *logger.Logger
}

func NewSessionRepo(engine kv.Engine, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{
		sessions: kv.NewCollection[types.Session](engine, CollectionSessions),
		log:      baseLog.With("repo", "SessionRepo"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, s *types.Session) (*types.Session, error) {
	if err := r.sessions.Insert(ctx, s.ID, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, sessionID string) (*types.Session, error) {
	return r.sessions.Get(ctx, sessionID)
}

func (r *sessionRepo) ListByPatientID(ctx context.Context, patientID string) ([]*types.Session, error) {
	return r.sessions.Collect(ctx, func(s *types.Session) bool { return s.PatientID == patientID })
}

func (r *sessionRepo) Update(ctx context.Context, sessionID string, mutate func(*types.Session) error) (*types.Session, error) {
	return r.sessions.Update(ctx, sessionID, mutate)
}
