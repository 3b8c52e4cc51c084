package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests        *CounterVec
	apiLatency         *HistogramVec
	apiInflight        *Gauge
	apiErrors          *CounterVec
	llmRequests        *CounterVec
	llmLatency         *HistogramVec
	llmInflight        *Gauge
	generationOutcomes *CounterVec
	storeConflicts     *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process metrics, or nil when metrics are disabled.
// Every method on a nil *Metrics is a no-op.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// NewMetrics builds an unregistered set; tests use it directly.
func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("souling_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"souling_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		apiInflight: NewGauge("souling_api_inflight_requests", "In-flight API requests."),
		apiErrors:   NewCounterVec("souling_api_errors_total", "Failed API requests by route and envelope code.", []string{"route", "code"}),
		llmRequests: NewCounterVec("souling_llm_requests_total", "Generation calls by provider/model/status.", []string{"provider", "model", "status"}),
		llmLatency: NewHistogramVec(
			"souling_llm_request_duration_seconds",
			"Generation call latency in seconds by provider/model/status.",
			[]string{"provider", "model", "status"},
			[]float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120},
		),
		llmInflight:        NewGauge("souling_llm_inflight_requests", "Generation calls currently holding a concurrency slot."),
		generationOutcomes: NewCounterVec("souling_generation_outcomes_total", "Orchestrated generations by kind/outcome.", []string{"kind", "outcome"}),
		storeConflicts:     NewCounterVec("souling_store_conflicts_total", "Writes rejected by a concurrent modification.", []string{"operation"}),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.apiErrors,
		m.llmRequests,
		m.llmLatency,
		m.llmInflight,
		m.generationOutcomes,
		m.storeConflicts,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

// IncAPIError counts a failed request under the code its envelope carried.
func (m *Metrics) IncAPIError(route, code string) {
	if m == nil {
		return
	}
	m.apiErrors.Inc(route, code)
}

func (m *Metrics) APIErrorCount(route, code string) float64 {
	if m == nil {
		return 0
	}
	return m.apiErrors.Value(route, code)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(provider, model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(provider, model, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), provider, model, status)
	}
}

func (m *Metrics) LLMInflightInc() {
	if m == nil {
		return
	}
	m.llmInflight.Inc()
}

func (m *Metrics) LLMInflightDec() {
	if m == nil {
		return
	}
	m.llmInflight.Dec()
}

// IncGeneration counts orchestrator results, e.g. ("enhance_script", "conflict").
func (m *Metrics) IncGeneration(kind, outcome string) {
	if m == nil {
		return
	}
	m.generationOutcomes.Inc(kind, outcome)
}

func (m *Metrics) IncStoreConflict(operation string) {
	if m == nil {
		return
	}
	m.storeConflicts.Inc(operation)
}

func (m *Metrics) GenerationCount(kind, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.generationOutcomes.Value(kind, outcome)
}
