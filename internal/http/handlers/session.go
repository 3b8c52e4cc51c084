package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/souling-backend/internal/http/response"
	"github.com/yungbote/souling-backend/internal/platform/logger"
	"github.com/yungbote/souling-backend/internal/services"
)

type SessionHandler struct {
	log     *logger.Logger
	service services.SessionService
}

func NewSessionHandler(log *logger.Logger, service services.SessionService) *SessionHandler {
	return &SessionHandler{log: log.With("handler", "SessionHandler"), service: service}
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req struct {
		PatientID   string          `json:"patientId"`
		TherapistID string          `json:"therapistId"`
		SessionType string          `json:"sessionType"`
		Goals       json.RawMessage `json:"goals"`
		Memories    json.RawMessage `json:"memories"`
	}
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.service.CreateSession(c.Request.Context(), services.CreateSessionInput{
		PatientID:   req.PatientID,
		TherapistID: req.TherapistID,
		SessionType: req.SessionType,
		Goals:       req.Goals,
		Memories:    req.Memories,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

func (h *SessionHandler) GenerateScript(c *gin.Context) {
	var req struct {
		SessionID        string          `json:"sessionId"`
		PatientProfile   json.RawMessage `json:"patientProfile"`
		InnerChildData   json.RawMessage `json:"innerChildData"`
		TherapeuticGoals json.RawMessage `json:"therapeuticGoals"`
	}
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.service.GenerateScript(c.Request.Context(), services.GenerateScriptInput{
		SessionID:        req.SessionID,
		PatientProfile:   req.PatientProfile,
		InnerChildData:   req.InnerChildData,
		TherapeuticGoals: req.TherapeuticGoals,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"script": session.Script, "session": session})
}

func (h *SessionHandler) Enhance(c *gin.Context) {
	var req struct {
		SessionID         string `json:"sessionId"`
		TherapistFeedback string `json:"therapistFeedback"`
		PatientResponse   string `json:"patientResponse"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.EnhanceScript(c.Request.Context(), services.EnhanceScriptInput{
		SessionID:         req.SessionID,
		TherapistFeedback: req.TherapistFeedback,
		PatientResponse:   req.PatientResponse,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"enhancedScript": res.Enhancement.EnhancedScript,
		"enhancement":    res.Enhancement,
	})
}

func (h *SessionHandler) Complete(c *gin.Context) {
	var req struct {
		SessionID    string   `json:"sessionId"`
		Rating       *float64 `json:"rating"`
		Breakthrough bool     `json:"breakthrough"`
	}
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.service.CompleteSession(c.Request.Context(), services.CompleteSessionInput{
		SessionID:    req.SessionID,
		Rating:       req.Rating,
		Breakthrough: req.Breakthrough,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

func (h *SessionHandler) ListEnhancements(c *gin.Context) {
	records, err := h.service.ListEnhancements(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enhancements": records})
}
