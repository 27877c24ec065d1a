// Package engine composes scoring, grading, forecasting and advisory into
// the request-level operations served by the API and the assessment
// pipeline. Every operation is a pure function of its input.
package engine

import (
	"time"

	"github.com/okian/robusta/internal/domain/advisory"
	"github.com/okian/robusta/internal/domain/agronomy"
	"github.com/okian/robusta/internal/domain/forecast"
	"github.com/okian/robusta/internal/domain/grading"
	"github.com/okian/robusta/internal/domain/model"
)

// Engine holds the constants and collaborators shared by all operations.
// It owns no mutable state and is safe for concurrent use.
type Engine struct {
	params     agronomy.Params
	sampling   grading.Sampling
	forecaster *forecast.Forecaster
	advisor    *advisory.Advisor
	years      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithParams overrides the agronomic optima.
func WithParams(p agronomy.Params) Option {
	return func(e *Engine) { e.params = p }
}

// WithSampling overrides the defect sample assumption.
func WithSampling(s grading.Sampling) Option {
	return func(e *Engine) {
		if s.SampleWeightG > 0 && s.BeanWeightG > 0 {
			e.sampling = s
		}
	}
}

// WithForecaster sets the yield forecaster.
func WithForecaster(f *forecast.Forecaster) Option {
	return func(e *Engine) {
		if f != nil {
			e.forecaster = f
		}
	}
}

// WithAdvisor sets the recommendation rules.
func WithAdvisor(a *advisory.Advisor) Option {
	return func(e *Engine) {
		if a != nil {
			e.advisor = a
		}
	}
}

// WithForecastYears sets the default horizon for requests that omit one.
func WithForecastYears(years int) Option {
	return func(e *Engine) {
		if years >= forecast.MinYears && years <= forecast.MaxYears {
			e.years = years
		}
	}
}

// New creates an Engine with the Robusta defaults.
func New(opts ...Option) *Engine {
	e := &Engine{
		params:     agronomy.DefaultParams(),
		sampling:   grading.DefaultSampling(),
		forecaster: forecast.New(),
		advisor:    advisory.New(),
		years:      forecast.DefaultYears,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assessment is the complete evaluation of one measurement set: grade from
// the full cupping estimate, site profile, yield forecast and advice.
type Assessment struct {
	ID              string                   `json:"assessment_id"`
	CreatedAt       time.Time                `json:"created_at"`
	Input           model.MeasurementSet     `json:"input"`
	Grade           model.Grade              `json:"grade"`
	StandardsGrade  int                      `json:"pns_grade"`
	BeanSize        model.SizeClass          `json:"bean_size_class"`
	CuppingScore    float64                  `json:"cupping_score"`
	DefectPct       float64                  `json:"total_defect_pct"`
	Cupping         grading.CuppingBreakdown `json:"cupping"`
	Profile         agronomy.Profile         `json:"suitability"`
	Forecast        []forecast.YearRecord    `json:"forecast"`
	Summary         forecast.Summary         `json:"forecast_summary"`
	Recommendations advisory.Recommendations `json:"recommendations"`
}

// Assess evaluates a measurement set. The caller supplies the identity and
// timestamp so the evaluation itself stays deterministic.
func (e *Engine) Assess(id string, at time.Time, m model.MeasurementSet) (Assessment, error) {
	if err := m.Validate(); err != nil {
		return Assessment{}, err
	}
	cup := grading.EstimateCuppingWith(e.params, m.Sample())
	prof := e.params.Evaluate(m.Site())
	grade := grading.FinePremiumGrade(m.PrimaryDefects, m.SecondaryDefects, cup.Score)
	defectPct := e.sampling.DefectPercentage(m.PrimaryDefects, m.SecondaryDefects)

	mg := m.Management()
	records, err := e.forecaster.Project(forecast.Input{
		PlantAgeMonths:      mg.PlantAgeMonths,
		FarmAreaHa:          mg.FarmAreaHa,
		ClimateSuitability:  prof.ClimateSuitability,
		SoilSuitability:     prof.SoilSuitability,
		OverallQualityIndex: prof.OverallQualityIndex,
		Fertilization:       mg.Fertilization,
		FertilizationFreq:   mg.FertilizationFrequency,
		PestFreq:            mg.PestManagementFrequency,
		Years:               e.years,
	})
	if err != nil {
		return Assessment{}, err
	}

	recs := e.advisor.Generate(advisory.Input{
		Grade:            grade,
		PrimaryDefects:   m.PrimaryDefects,
		SecondaryDefects: m.SecondaryDefects,
		TemperatureC:     m.TemperatureC,
		ElevationM:       m.ElevationM,
		RainfallMM:       m.RainfallMM,
		SoilPH:           m.SoilPH,
		BeanScreenMM:     m.BeanScreenMM,
		PlantAgeMonths:   m.PlantAgeMonths,
	})

	return Assessment{
		ID:              id,
		CreatedAt:       at.UTC(),
		Input:           m,
		Grade:           grade,
		StandardsGrade:  grading.StandardsGrade(defectPct),
		BeanSize:        grading.BeanSizeClass(m.BeanScreenMM),
		CuppingScore:    cup.Score,
		DefectPct:       model.Round(defectPct, 2),
		Cupping:         cup,
		Profile:         prof.Rounded(),
		Forecast:        records,
		Summary:         forecast.Summarize(records),
		Recommendations: recs,
	}, nil
}
