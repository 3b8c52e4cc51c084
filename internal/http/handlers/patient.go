package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/souling-backend/internal/http/response"
	"github.com/yungbote/souling-backend/internal/platform/logger"
	"github.com/yungbote/souling-backend/internal/services"
)

type PatientHandler struct {
	log       *logger.Logger
	sessions  services.SessionService
	journal   services.JournalService
	analytics services.AnalyticsService
}

func NewPatientHandler(
	log *logger.Logger,
	sessions services.SessionService,
	journal services.JournalService,
	analytics services.AnalyticsService,
) *PatientHandler {
	return &PatientHandler{
		log:       log.With("handler", "PatientHandler"),
		sessions:  sessions,
		journal:   journal,
		analytics: analytics,
	}
}

func (h *PatientHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.ListPatientSessions(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

func (h *PatientHandler) Journal(c *gin.Context) {
	var req struct {
		UserID    string `json:"userId"`
		Entry     string `json:"entry"`
		SessionID string `json:"sessionId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	insights, err := h.journal.AnalyzeEntry(c.Request.Context(), services.JournalInput{
		UserID:    req.UserID,
		Entry:     req.Entry,
		SessionID: req.SessionID,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"insights": insights})
}

func (h *PatientHandler) Progress(c *gin.Context) {
	progress, err := h.analytics.PatientProgress(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": progress})
}
