package engine

import (
	"github.com/okian/robusta/internal/domain/advisory"
	"github.com/okian/robusta/internal/domain/agronomy"
	"github.com/okian/robusta/internal/domain/forecast"
	"github.com/okian/robusta/internal/domain/grading"
	"github.com/okian/robusta/internal/domain/model"
)

// SampleGrade is the legacy grading result.
type SampleGrade struct {
	PredictedQualityGrade model.Grade `json:"predicted_quality_grade"`
	CuppingScore          float64     `json:"cupping_score"`
	PNSGrade              int         `json:"pns_grade"`
	TotalDefectPct        float64     `json:"total_defect_pct"`
	PrimaryDefects        int         `json:"primary_defects"`
	SecondaryDefects      int         `json:"secondary_defects"`
	TotalDefects          int         `json:"total_defects"`
}

// GradeSample grades a green-bean sample from its measurements using the
// full cupping estimate.
func (e *Engine) GradeSample(req SampleRequest) (SampleGrade, error) {
	s, err := req.sample()
	if err != nil {
		return SampleGrade{}, err
	}
	cup := grading.EstimateCuppingWith(e.params, s)
	pct := e.sampling.DefectPercentage(s.PrimaryDefects, s.SecondaryDefects)
	return SampleGrade{
		PredictedQualityGrade: grading.FinePremiumGrade(s.PrimaryDefects, s.SecondaryDefects, cup.Score),
		CuppingScore:          cup.Score,
		PNSGrade:              grading.StandardsGrade(pct),
		TotalDefectPct:        model.Round(pct, 2),
		PrimaryDefects:        s.PrimaryDefects,
		SecondaryDefects:      s.SecondaryDefects,
		TotalDefects:          s.TotalDefects(),
	}, nil
}

// Elevation categories reported with a grade prediction.
const (
	ElevationOptimal    = "Optimal"
	ElevationSubOptimal = "Sub-optimal"
)

// GradePrediction is the result of PredictGrade.
type GradePrediction struct {
	PredictedGrade      model.Grade     `json:"predicted_grade"`
	PNSGrade            int             `json:"pns_grade"`
	BeanSizeClass       model.SizeClass `json:"bean_size_class"`
	CuppingScore        float64         `json:"cupping_score"`
	TotalDefectPct      float64         `json:"total_defect_pct"`
	TotalDefectCount    int             `json:"total_defect_count"`
	PrimaryDefects      int             `json:"primary_defects"`
	SecondaryDefects    int             `json:"secondary_defects"`
	ClimateSuitability  float64         `json:"climate_suitability"`
	SoilSuitability     float64         `json:"soil_suitability"`
	ElevationScore      float64         `json:"elevation_score"`
	OverallQualityIndex float64         `json:"overall_quality_index"`
	ElevationCategory   string          `json:"elevation_category"`
}

// PredictGrade predicts the grade of a lot from its growing conditions. The
// cupping score is scaled from the overall quality index unless the request
// supplies one.
func (e *Engine) PredictGrade(req GradeRequest) (GradePrediction, error) {
	if err := req.validate(); err != nil {
		return GradePrediction{}, err
	}
	site, err := req.site()
	if err != nil {
		return GradePrediction{}, err
	}
	primary, secondary, err := req.counts(0)
	if err != nil {
		return GradePrediction{}, err
	}

	prof := e.params.EvaluateWithStress(site, req.EnvironmentalStress)
	cupping := grading.CuppingFromQuality(prof.OverallQualityIndex)
	if req.QualityScore != nil {
		cupping = *req.QualityScore
	}
	pct := e.sampling.DefectPercentage(primary, secondary)

	category := ElevationSubOptimal
	if site.ElevationM >= advisory.MinElevationM && site.ElevationM <= advisory.MaxElevationM {
		category = ElevationOptimal
	}

	return GradePrediction{
		PredictedGrade:      grading.FinePremiumGrade(primary, secondary, cupping),
		PNSGrade:            grading.StandardsGrade(pct),
		BeanSizeClass:       grading.BeanSizeClass(*req.BeanScreenMM),
		CuppingScore:        model.Round(cupping, 2),
		TotalDefectPct:      model.Round(pct, 2),
		TotalDefectCount:    primary + secondary,
		PrimaryDefects:      primary,
		SecondaryDefects:    secondary,
		ClimateSuitability:  model.Round(prof.ClimateSuitability, 3),
		SoilSuitability:     model.Round(prof.SoilSuitability, 3),
		ElevationScore:      model.Round(prof.ElevationScore, 3),
		OverallQualityIndex: model.Round(prof.OverallQualityIndex, 3),
		ElevationCategory:   category,
	}, nil
}

// SuitabilityScores are the indices that drove a forecast.
type SuitabilityScores struct {
	ClimateSuitability  float64 `json:"climate_suitability"`
	SoilSuitability     float64 `json:"soil_suitability"`
	OverallQualityIndex float64 `json:"overall_quality_index"`
}

// YieldForecast is the result of ForecastYield.
type YieldForecast struct {
	ForecastData      []forecast.YearRecord `json:"forecast_data"`
	Summary           forecast.Summary      `json:"summary"`
	SuitabilityScores SuitabilityScores     `json:"suitability_scores"`
}

// ForecastYield projects yield and grade mix over the requested horizon.
func (e *Engine) ForecastYield(req YieldRequest) (YieldForecast, error) {
	site, err := req.site()
	if err != nil {
		return YieldForecast{}, err
	}
	mg, err := req.management()
	if err != nil {
		return YieldForecast{}, err
	}
	prof := e.params.Evaluate(site)
	records, err := e.forecaster.Project(forecast.Input{
		PlantAgeMonths:      mg.PlantAgeMonths,
		FarmAreaHa:          mg.FarmAreaHa,
		ClimateSuitability:  prof.ClimateSuitability,
		SoilSuitability:     prof.SoilSuitability,
		OverallQualityIndex: prof.OverallQualityIndex,
		Fertilization:       mg.Fertilization,
		FertilizationFreq:   mg.FertilizationFrequency,
		PestFreq:            mg.PestManagementFrequency,
		Years:               intOr(req.ForecastYears, e.years),
	})
	if err != nil {
		return YieldForecast{}, err
	}
	return YieldForecast{
		ForecastData: records,
		Summary:      forecast.Summarize(records),
		SuitabilityScores: SuitabilityScores{
			ClimateSuitability:  model.Round(prof.ClimateSuitability, 3),
			SoilSuitability:     model.Round(prof.SoilSuitability, 3),
			OverallQualityIndex: model.Round(prof.OverallQualityIndex, 3),
		},
	}, nil
}

// QualityDistribution is the result of the grade-mix lookup.
type QualityDistribution struct {
	forecast.Mix
	QualityScore float64 `json:"quality_score"`
}

// QualityDistribution looks up the expected grade mix. Without a quality
// score it is derived from management factors and suitabilities; when either
// suitability is missing both fall back to 0.8.
func (e *Engine) QualityDistribution(req QualityRequest) (QualityDistribution, error) {
	if err := req.validate(); err != nil {
		return QualityDistribution{}, err
	}
	var score float64
	if req.QualityScore != nil {
		score = *req.QualityScore
	} else {
		climate, soil := DefaultSuitability, DefaultSuitability
		if req.ClimateSuitability != nil && req.SoilSuitability != nil {
			climate, soil = *req.ClimateSuitability, *req.SoilSuitability
		}
		score = forecast.QualityScore(
			floatOr(req.FertilizationFactor, DefaultFertilizationFactor),
			floatOr(req.PestFactor, DefaultPestFactor),
			climate, soil,
		)
	}
	mix := forecast.GradeMix(score)
	return QualityDistribution{
		Mix: forecast.Mix{
			Fine:       model.Round(mix.Fine, 3),
			Premium:    model.Round(mix.Premium, 3),
			Commercial: model.Round(mix.Commercial, 3),
		},
		QualityScore: model.Round(score, 3),
	}, nil
}

// Recommend generates advice for a lot. Without a supplied grade, the grade
// comes from the quality-index cupping estimate.
func (e *Engine) Recommend(req RecommendationRequest) (advisory.Recommendations, error) {
	site, err := req.site()
	if err != nil {
		return advisory.Recommendations{}, err
	}
	primary, secondary, err := req.counts(DefaultSecondaryDefects)
	if err != nil {
		return advisory.Recommendations{}, err
	}
	age := intOr(req.PlantAgeMonths, DefaultPlantAgeMonths)
	bean := floatOr(req.BeanScreenMM, DefaultBeanScreenMM)
	if err := firstError(
		model.CheckIntRange("plant_age_months", age, 0, model.MaxPlantAgeMonths),
		model.CheckRange("bean_screen_size_mm", bean, model.MinBeanScreenMM, model.MaxBeanScreenMM),
	); err != nil {
		return advisory.Recommendations{}, err
	}

	var grade model.Grade
	if req.PredictedGrade != nil {
		if grade, err = model.ParseGrade(*req.PredictedGrade); err != nil {
			return advisory.Recommendations{}, err
		}
	} else {
		grade = e.gradeFromSite(site, primary, secondary)
	}

	return e.advisor.Generate(advisory.Input{
		Grade:            grade,
		PrimaryDefects:   primary,
		SecondaryDefects: secondary,
		TemperatureC:     site.TemperatureC,
		ElevationM:       site.ElevationM,
		RainfallMM:       site.RainfallMM,
		SoilPH:           site.SoilPH,
		BeanScreenMM:     bean,
		PlantAgeMonths:   age,
	}), nil
}

func (e *Engine) gradeFromSite(site model.Site, primary, secondary int) model.Grade {
	prof := e.params.Evaluate(site)
	return grading.FinePremiumGrade(primary, secondary, grading.CuppingFromQuality(prof.OverallQualityIndex))
}

// Profile scores a site with the engine's optima.
func (e *Engine) Profile(site model.Site) agronomy.Profile {
	return e.params.Evaluate(site)
}
