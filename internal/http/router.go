package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/souling-backend/internal/http/handlers"
	httpMW "github.com/yungbote/souling-backend/internal/http/middleware"
	"github.com/yungbote/souling-backend/internal/observability"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler       *httpH.AuthHandler
	InnerChildHandler *httpH.InnerChildHandler
	SessionHandler    *httpH.SessionHandler
	TherapistHandler  *httpH.TherapistHandler
	PatientHandler    *httpH.PatientHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestIdentity())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.OptionalAuth())
	}
	{
		// Auth
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}

		// Inner child
		if cfg.InnerChildHandler != nil {
			api.POST("/inner-child/create", cfg.InnerChildHandler.Create)
			api.GET("/inner-child/:userId", cfg.InnerChildHandler.Get)
		}

		// Sessions
		if cfg.SessionHandler != nil {
			api.POST("/session/create", cfg.SessionHandler.Create)
			api.POST("/session/generate-script", cfg.SessionHandler.GenerateScript)
			api.POST("/session/enhance-audio", cfg.SessionHandler.Enhance)
			api.POST("/session/complete", cfg.SessionHandler.Complete)
			api.GET("/session/:sessionId/enhancements", cfg.SessionHandler.ListEnhancements)
		}

		// Therapists
		if cfg.TherapistHandler != nil {
			api.GET("/therapists", cfg.TherapistHandler.List)
			api.POST("/therapist/update-profile", cfg.TherapistHandler.UpdateProfile)
		}

		// Patients
		if cfg.PatientHandler != nil {
			api.GET("/patient/sessions/:patientId", cfg.PatientHandler.ListSessions)
			api.POST("/patient/journal", cfg.PatientHandler.Journal)
			api.GET("/analytics/patient-progress/:patientId", cfg.PatientHandler.Progress)
		}
	}

	return r
}
