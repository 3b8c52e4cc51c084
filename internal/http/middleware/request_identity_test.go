package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/souling-backend/internal/platform/ctxutil"
)

func serveWithIdentity(t *testing.T, header http.Header) (*httptest.ResponseRecorder, *ctxutil.TraceData) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(RequestIdentity())
	r.GET("/healthcheck", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if seen == nil {
		t.Fatalf("trace data not attached to request context")
	}
	return rec, seen
}

func TestRequestIdentityKeepsWellFormedClientIDs(t *testing.T) {
	h := http.Header{}
	h.Set(headerRequestID, "req-42")
	h.Set(headerTraceID, "trace-abc")
	rec, td := serveWithIdentity(t, h)

	if td.RequestID != "req-42" || td.TraceID != "trace-abc" {
		t.Fatalf("client ids not kept: %+v", td)
	}
	if rec.Header().Get(headerRequestID) != "req-42" || rec.Header().Get(headerTraceID) != "trace-abc" {
		t.Fatalf("ids not echoed: %v", rec.Header())
	}
}

func TestRequestIdentityReplacesHostileIDs(t *testing.T) {
	for name, raw := range map[string]string{
		"too long":     strings.Repeat("a", maxClientIDLen+1),
		"embedded gap": "abc def",
		"non ascii":    "reqé",
	} {
		t.Run(name, func(t *testing.T) {
			h := http.Header{}
			h.Set(headerRequestID, raw)
			_, td := serveWithIdentity(t, h)
			if td.RequestID == raw || td.RequestID == "" {
				t.Fatalf("expected a generated id, got %q", td.RequestID)
			}
			if td.TraceID != td.RequestID {
				t.Fatalf("trace id should fall back to the request id, got %q vs %q", td.TraceID, td.RequestID)
			}
		})
	}
}
