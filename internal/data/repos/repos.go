package repos

import (
	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/data/repos/therapy"
	"github.com/yungbote/souling-backend/internal/data/repos/user"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type TherapistRepo = therapy.TherapistRepo
type InnerChildRepo = therapy.InnerChildRepo
type SessionRepo = therapy.SessionRepo
type EnhancementRepo = therapy.EnhancementRepo

const (
	CollectionUsers        = user.CollectionUsers
	CollectionEmailIndex   = user.CollectionEmailIndex
	CollectionTherapists   = therapy.CollectionTherapists
	CollectionInnerChild   = therapy.CollectionInnerChild
	CollectionSessions     = therapy.CollectionSessions
	CollectionEnhancements = therapy.CollectionEnhancements
)

var (
	ErrEmailTaken    = user.ErrEmailTaken
	ErrProfileExists = therapy.ErrProfileExists
)

func NewUserRepo(engine kv.Engine, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(engine, baseLog)
}

func NewTherapistRepo(engine kv.Engine, baseLog *logger.Logger) TherapistRepo {
	return therapy.NewTherapistRepo(engine, baseLog)
}

func NewInnerChildRepo(engine kv.Engine, baseLog *logger.Logger) InnerChildRepo {
	return therapy.NewInnerChildRepo(engine, baseLog)
}

func NewSessionRepo(engine kv.Engine, baseLog *logger.Logger) SessionRepo {
	return therapy.NewSessionRepo(engine, baseLog)
}

func NewEnhancementRepo(engine kv.Engine, baseLog *logger.Logger) EnhancementRepo {
	return therapy.NewEnhancementRepo(engine, baseLog)
}
