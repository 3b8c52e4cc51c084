package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/souling-backend/internal/http/response"
	"github.com/yungbote/souling-backend/internal/platform/logger"
	"github.com/yungbote/souling-backend/internal/services"
)

type InnerChildHandler struct {
	log     *logger.Logger
	service services.InnerChildService
}

func NewInnerChildHandler(log *logger.Logger, service services.InnerChildService) *InnerChildHandler {
	return &InnerChildHandler{log: log.With("handler", "InnerChildHandler"), service: service}
}

func (h *InnerChildHandler) Create(c *gin.Context) {
	var req struct {
		UserID          string          `json:"userId"`
		Memories        []string        `json:"memories"`
		Age             flexInt         `json:"age"`
		Characteristics json.RawMessage `json:"characteristics"`
	}
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.service.CreateProfile(c.Request.Context(), services.CreateProfileInput{
		UserID:          req.UserID,
		Age:             req.Age.Value,
		Memories:        req.Memories,
		Characteristics: req.Characteristics,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

func (h *InnerChildHandler) Get(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}
