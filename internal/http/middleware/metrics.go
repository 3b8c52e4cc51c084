package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/souling-backend/internal/http/response"
	"github.com/yungbote/souling-backend/internal/observability"
)

// unmatchedRoute labels 404s for unknown paths, keeping scanner traffic from
// minting a series per URL.
const unmatchedRoute = "unmatched"

// Metrics records count and latency per route template, plus the envelope
// code of every failed response (invalid_input, generation_failed, ...).
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
		if code := c.GetString(response.ErrorCodeKey); code != "" {
			m.IncAPIError(route, code)
		}
	}
}
