package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/robusta/internal/domain/advisory"
	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// GradingDependencies are the synchronous engine operations.
type GradingDependencies interface {
	GradeSample(ctx context.Context, req engine.SampleRequest) (engine.SampleGrade, error)
	PredictGrade(ctx context.Context, req engine.GradeRequest) (engine.GradePrediction, error)
	ForecastYield(ctx context.Context, req engine.YieldRequest) (engine.YieldForecast, error)
	QualityDistribution(ctx context.Context, req engine.QualityRequest) (engine.QualityDistribution, error)
	Recommend(ctx context.Context, req engine.RecommendationRequest) (advisory.Recommendations, error)
}

// GradingHandler serves the grading, forecast and advice routes.
type GradingHandler struct {
	deps GradingDependencies
}

// NewGradingHandler creates a grading handler.
func NewGradingHandler(deps GradingDependencies) *GradingHandler {
	return &GradingHandler{deps: deps}
}

type legacyError struct {
	Error string `json:"error"`
}

// HandlePredict handles GET /predict, the query-string grading interface.
// Errors use the {"error": ...} body older clients expect.
func (h *GradingHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	req, err := parseSampleQuery(r.URL.Query())
	if err == nil {
		var res engine.SampleGrade
		res, err = h.deps.GradeSample(r.Context(), req)
		if err == nil {
			writeJSON(w, http.StatusOK, res)
			return
		}
	}

	status, _ := classify(err)
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, legacyError{Error: verr.Message})
	case status == http.StatusInternalServerError:
		writeJSON(w, status, legacyError{Error: "Internal server error"})
	default:
		writeJSON(w, status, legacyError{Error: err.Error()})
	}
}

// parseSampleQuery reads the legacy parameters. processing_method, colors
// and moisture must be present; an empty altitude or moisture reads as 0.
func parseSampleQuery(q url.Values) (engine.SampleRequest, error) {
	for _, key := range []string{"processing_method", "colors", "moisture"} {
		if !q.Has(key) {
			return engine.SampleRequest{}, model.Required(key)
		}
	}

	var (
		req  engine.SampleRequest
		errs []error
	)
	req.Altitude, errs = queryFloat(q, "altitude", errs)
	req.BagWeight, errs = queryFloat(q, "bag_weight", errs)
	req.Moisture, errs = queryFloat(q, "moisture", errs)
	req.ProcessingMethod, errs = queryInt(q, "processing_method", errs)
	req.Colors, errs = queryInt(q, "colors", errs)
	req.PrimaryDefects, errs = queryInt(q, "category_one_defects", errs)
	req.SecondaryDefects, errs = queryInt(q, "category_two_defects", errs)
	if len(errs) > 0 {
		return engine.SampleRequest{}, errs[0]
	}
	return req, nil
}

func queryFloat(q url.Values, key string, errs []error) (*float64, []error) {
	if !q.Has(key) {
		return nil, errs
	}
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return engine.Float64(0), errs
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, append(errs, model.Invalid(key, "Invalid input parameter: %s must be a number, got %q", key, raw))
	}
	return &v, errs
}

func queryInt(q url.Values, key string, errs []error) (*int, []error) {
	if !q.Has(key) {
		return nil, errs
	}
	raw := strings.TrimSpace(q.Get(key))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, append(errs, model.Invalid(key, "Invalid input parameter: %s must be an integer, got %q", key, raw))
	}
	return &v, errs
}

// HandleGrade handles POST /grade.
func (h *GradingHandler) HandleGrade(w http.ResponseWriter, r *http.Request) {
	const op = "api.grade"
	var req engine.GradeRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.PredictGrade(r.Context(), req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeData(w, res)
}

// HandleForecastYield handles POST /forecast-yield.
func (h *GradingHandler) HandleForecastYield(w http.ResponseWriter, r *http.Request) {
	const op = "api.forecast_yield"
	var req engine.YieldRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.ForecastYield(r.Context(), req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeData(w, res)
}

// HandlePredictQuality handles POST /predict-quality.
func (h *GradingHandler) HandlePredictQuality(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_quality"
	var req engine.QualityRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.QualityDistribution(r.Context(), req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeData(w, res)
}

// HandleRecommendations handles POST /recommendations.
func (h *GradingHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommendations"
	var req engine.RecommendationRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Recommend(r.Context(), req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeData(w, res)
}

// decodeBody reads a JSON object. An empty body decodes to the zero value
// so every optional field takes its default.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
