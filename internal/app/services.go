package app

import (
	"github.com/yungbote/souling-backend/internal/platform/llm"
	"github.com/yungbote/souling-backend/internal/platform/logger"
	"github.com/yungbote/souling-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Therapist  services.TherapistService
	InnerChild services.InnerChildService
	Session    services.SessionService
	Journal    services.JournalService
	Analytics  services.AnalyticsService
}

func wireServices(log *logger.Logger, cfg Config, r Repos, gen llm.Generator) Services {
	log.Info("Wiring services...")
	model := cfg.Generation.Model
	return Services{
		Auth:       services.NewAuthService(log, r.User, r.Therapist, cfg.Auth.JWTSecretKey, cfg.Auth.AccessTokenTTL, cfg.Auth.BcryptCost),
		Therapist:  services.NewTherapistService(log, r.User, r.Therapist),
		InnerChild: services.NewInnerChildService(log, r.User, r.InnerChild, gen, model),
		Session:    services.NewSessionService(log, r.User, r.Therapist, r.Session, r.Enhancement, gen, model),
		Journal:    services.NewJournalService(log, gen, model),
		Analytics:  services.NewAnalyticsService(log, r.Session),
	}
}
