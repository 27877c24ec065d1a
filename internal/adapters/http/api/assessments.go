package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/robusta/internal/app"
	"github.com/okian/robusta/internal/adapters/repository"
	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/internal/domain/model"
)

const defaultTopLimit = 10

// AssessmentDependencies are the asynchronous pipeline and its read side.
type AssessmentDependencies interface {
	Submit(ctx context.Context, id string, m model.MeasurementSet) (service.Receipt, error)
	Assessment(ctx context.Context, id string) (engine.Assessment, error)
	Top(ctx context.Context, n int) ([]repository.Entry, error)
	Distribution(ctx context.Context) ([]repository.GradeStats, error)
}

// AssessmentHandler serves the /assessments and /grades routes.
type AssessmentHandler struct {
	deps     AssessmentDependencies
	maxLimit int
}

// NewAssessmentHandler creates an assessment handler.
func NewAssessmentHandler(deps AssessmentDependencies, maxLimit int) *AssessmentHandler {
	return &AssessmentHandler{deps: deps, maxLimit: maxLimit}
}

// submission is the POST /assessments body.
type submission struct {
	ID string `json:"assessment_id"`
	model.MeasurementSet
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"assessment_id"`
	Duplicate bool   `json:"duplicate"`
}

// HandleSubmit handles POST /assessments.
func (h *AssessmentHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_assessment"
	var req submission
	if err := decodeBody(r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if fert, err := model.ParseFertilizationType(string(req.Fertilization)); err == nil {
		req.Fertilization = fert
	}

	rec, err := h.deps.Submit(r.Context(), strings.TrimSpace(req.ID), req.MeasurementSet)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	if rec.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: rec.ID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: rec.ID})
}

// HandleGet handles GET /assessments/{id}.
func (h *AssessmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_assessment"
	id := r.PathValue("id")
	if id == "" {
		fail(w, NewKind(op, ErrBadRequest))
		return
	}
	a, err := h.deps.Assessment(r.Context(), id)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleTop handles GET /assessments/top?limit=N.
func (h *AssessmentHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.top_assessments"
	n := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.Top(r.Context(), n)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleDistribution handles GET /grades/distribution.
func (h *AssessmentHandler) HandleDistribution(w http.ResponseWriter, r *http.Request) {
	const op = "api.grade_distribution"
	stats, err := h.deps.Distribution(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
