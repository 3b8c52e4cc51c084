package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/souling-backend/internal/http/response"
)

// bindJSON decodes the body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// flexInt accepts a JSON number or a numeric string, since form inputs
// arrive as strings. Null or "" leave it unset.
type flexInt struct {
	Value *int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var n json.Number
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n = json.Number(s)
	} else {
		n = json.Number(b)
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", b)
	}
	f.Value = &i
	return nil
}
