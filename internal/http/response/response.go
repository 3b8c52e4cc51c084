package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/souling-backend/internal/platform/apierr"
)

// ErrorCodeKey holds the envelope code of a failed response for middleware.
const ErrorCodeKey = "error_code"

// ErrorEnvelope carries the failure text under both "message" and "error"
// so clients written against either field keep working.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.Set(ErrorCodeKey, code)
	c.JSON(status, ErrorEnvelope{
		Success: false,
		Message: msg,
		Error:   msg,
		Code:    code,
	})
}

// RespondErr classifies err and writes the matching status and envelope.
func RespondErr(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	apiErr := apierr.FromError(err)
	if apiErr == nil {
		apiErr = apierr.New(http.StatusInternalServerError, "internal", nil)
	}
	msg := apiErr.Message()
	if apiErr.Status >= http.StatusInternalServerError && apiErr.Code == "internal" {
		msg = "internal server error"
	}
	c.Set(ErrorCodeKey, apiErr.Code)
	c.JSON(apiErr.Status, ErrorEnvelope{
		Success: false,
		Message: msg,
		Error:   msg,
		Code:    apiErr.Code,
	})
}

// RespondOK merges payload into a success envelope.
func RespondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
