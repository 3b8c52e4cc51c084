package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("POST", "/api/session/create", "200", 30*time.Millisecond)
	m.ObserveLLMRequest("mock", "mock-1", "ok", 2*time.Second)
	m.IncGeneration("enhance_script", "conflict")
	m.IncGeneration("enhance_script", "conflict")
	m.IncAPIError("/api/session/enhance-script", "store_conflict")

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`souling_api_requests_total{method="POST",route="/api/session/create",status="200"} 1`,
		`souling_llm_request_duration_seconds_bucket{provider="mock",model="mock-1",status="ok",le="2"} 1`,
		`souling_llm_request_duration_seconds_bucket{provider="mock",model="mock-1",status="ok",le="1"} 0`,
		"# TYPE souling_api_inflight_requests gauge",
		`souling_api_errors_total{route="/api/session/enhance-script",code="store_conflict"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}
	if got := m.GenerationCount("enhance_script", "conflict"); got != 2 {
		t.Fatalf("GenerationCount: got %v want 2", got)
	}
	if !strings.HasPrefix(out, "# HELP souling_api_requests_total") {
		t.Fatalf("unexpected exposition order:\n%s", out)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.IncGeneration("x", "y")
	m.ApiInflightInc()
	m.IncAPIError("/", "internal")
	if got := m.GenerationCount("x", "y"); got != 0 {
		t.Fatalf("nil metrics counted %v", got)
	}
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil metrics write: %v", err)
	}
}

func TestLabelEscaping(t *testing.T) {
	if got := labelString([]string{"a", "b"}, []string{`x"y`}); got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString: %s", got)
	}
	if got := withLe("", "0.5"); got != `{le="0.5"}` {
		t.Fatalf("withLe: %s", got)
	}
}
