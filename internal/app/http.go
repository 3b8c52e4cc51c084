package app

import (
	"context"
	"errors"

	"github.com/yungbote/souling-backend/internal/data/kv"
	server "github.com/yungbote/souling-backend/internal/http"
	httpH "github.com/yungbote/souling-backend/internal/http/handlers"
	httpMW "github.com/yungbote/souling-backend/internal/http/middleware"
	"github.com/yungbote/souling-backend/internal/observability"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const healthCollection = "healthcheck"

func wireRouterConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, engine kv.Engine, s Services) server.RouterConfig {
	log.Info("Wiring handlers...")
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return server.RouterConfig{
		Log:         log,
		Metrics:     metrics,
		ServiceName: serviceName,
		CORSOrigins: cfg.HTTP.CORSOrigins,

		AuthMiddleware: httpMW.NewAuthMiddleware(log, s.Auth),

		AuthHandler:       httpH.NewAuthHandler(log, s.Auth),
		InnerChildHandler: httpH.NewInnerChildHandler(log, s.InnerChild),
		SessionHandler:    httpH.NewSessionHandler(log, s.Session),
		TherapistHandler:  httpH.NewTherapistHandler(log, s.Therapist),
		PatientHandler:    httpH.NewPatientHandler(log, s.Session, s.Journal, s.Analytics),

		HealthHandler: httpH.NewHealthHandler(storeCheck(engine)),
	}
}

// storeCheck reads a key that never exists; anything but ErrNotFound means
// the store is unreachable.
func storeCheck(engine kv.Engine) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := engine.Get(ctx, healthCollection, "healthcheck")
		if err == nil || errors.Is(err, kv.ErrNotFound) {
			return nil
		}
		return err
	}
}
