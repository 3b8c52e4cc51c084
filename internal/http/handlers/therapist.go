package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/souling-backend/internal/http/response"
	"github.com/yungbote/souling-backend/internal/platform/logger"
	"github.com/yungbote/souling-backend/internal/services"
)

type TherapistHandler struct {
	log     *logger.Logger
	service services.TherapistService
}

func NewTherapistHandler(log *logger.Logger, service services.TherapistService) *TherapistHandler {
	return &TherapistHandler{log: log.With("handler", "TherapistHandler"), service: service}
}

func (h *TherapistHandler) List(c *gin.Context) {
	therapists, err := h.service.ListTherapists(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"therapists": therapists})
}

func (h *TherapistHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		TherapistID     string   `json:"therapistId"`
		Specializations []string `json:"specializations"`
		Bio             *string  `json:"bio"`
		Certifications  []string `json:"certifications"`
	}
	if !bindJSON(c, &req) {
		return
	}
	therapist, err := h.service.UpdateProfile(c.Request.Context(), services.UpdateProfileInput{
		TherapistID:     req.TherapistID,
		Specializations: req.Specializations,
		Bio:             req.Bio,
		Certifications:  req.Certifications,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"therapist": therapist})
}
