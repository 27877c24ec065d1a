// Package api exposes the grading engine and the assessment pipeline over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/robusta/internal/app"
	"github.com/okian/robusta/internal/adapters/repository"
	"github.com/okian/robusta/internal/domain/model"
)

const defaultMaxTopLimit = 100

// Dependencies bundles everything the handlers call.
type Dependencies interface {
	GradingDependencies
	AssessmentDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	gradingHandler    *GradingHandler
	assessmentHandler *AssessmentHandler
}

// Option configures the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxTopLimit int
	version     string
}

// WithMaxTopLimit caps the limit accepted by /assessments/top.
func WithMaxTopLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxTopLimit = n
		}
	}
}

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(c *serverConfig) {
		if v != "" {
			c.version = v
		}
	}
}

// NewServer creates the API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxTopLimit: defaultMaxTopLimit, version: "dev"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:     NewHealthHandler(cfg.version),
		statsHandler:      NewStatsHandler(deps),
		gradingHandler:    NewGradingHandler(deps),
		assessmentHandler: NewAssessmentHandler(deps, cfg.maxTopLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /predict", MetricsMiddleware(s.gradingHandler.HandlePredict, "predict"))
	mux.HandleFunc("POST /grade", MetricsMiddleware(s.gradingHandler.HandleGrade, "grade"))
	mux.HandleFunc("POST /forecast-yield", MetricsMiddleware(s.gradingHandler.HandleForecastYield, "forecast_yield"))
	mux.HandleFunc("POST /predict-quality", MetricsMiddleware(s.gradingHandler.HandlePredictQuality, "predict_quality"))
	mux.HandleFunc("POST /recommendations", MetricsMiddleware(s.gradingHandler.HandleRecommendations, "recommendations"))

	mux.HandleFunc("POST /assessments", MetricsMiddleware(s.assessmentHandler.HandleSubmit, "assessments"))
	mux.HandleFunc("GET /assessments/top", MetricsMiddleware(s.assessmentHandler.HandleTop, "assessments_top"))
	mux.HandleFunc("GET /assessments/{id}", MetricsMiddleware(s.assessmentHandler.HandleGet, "assessment"))
	mux.HandleFunc("GET /grades/distribution", MetricsMiddleware(s.assessmentHandler.HandleDistribution, "grades_distribution"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: v})
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrUnavailable), errors.Is(err, repository.ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with the status its kind maps to. Validation failures
// report only their field message.
func fail(w http.ResponseWriter, err error) {
	status, code := classify(err)
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		err = verr
	}
	if status == http.StatusInternalServerError {
		err = errors.New(http.StatusText(status))
	}
	writeError(w, status, code, err)
}
