package app

import (
	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/data/repos"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	Therapist   repos.TherapistRepo
	InnerChild  repos.InnerChildRepo
	Session     repos.SessionRepo
	Enhancement repos.EnhancementRepo
}

func wireRepos(engine kv.Engine, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(engine, log),
		Therapist:   repos.NewTherapistRepo(engine, log),
		InnerChild:  repos.NewInnerChildRepo(engine, log),
		Session:     repos.NewSessionRepo(engine, log),
		Enhancement: repos.NewEnhancementRepo(engine, log),
	}
}
