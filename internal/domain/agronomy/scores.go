package agronomy

import (
	"math"

	"github.com/okian/robusta/internal/domain/model"
)

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func falloff(v, center, width float64) float64 {
	return clamp01(1 - math.Abs(v-center)/width)
}

// ElevationScore is 1 at the elevation center and 0 at or beyond center ± range.
func (p Params) ElevationScore(elevationM float64) float64 {
	return falloff(elevationM, p.ElevationCenter, p.ElevationRange)
}

// TemperatureScore scores the monthly average temperature.
func (p Params) TemperatureScore(tempC float64) float64 {
	return falloff(tempC, p.TemperatureCenter, p.TemperatureRange)
}

// RainfallScore rises linearly to 1 at the optimum and saturates there.
// The ratio is capped at RainfallCap before the unit clamp, so the cap never
// changes the result; it is kept to match historical scores.
func (p Params) RainfallScore(rainfallMM float64) float64 {
	return clamp01(math.Min(rainfallMM/p.RainfallOptimum, p.RainfallCap))
}

// SoilSuitability scores soil pH.
func (p Params) SoilSuitability(pH float64) float64 {
	return falloff(pH, p.PHOptimum, p.PHRange)
}

// MoistureSuitability rises linearly with soil moisture up to saturation.
// Wetter soil is not penalised.
func (p Params) MoistureSuitability(soilMoisturePct float64) float64 {
	return clamp01(soilMoisturePct / p.MoistureSaturated)
}

// ClimateSuitabilityFeature is the climate index of the feature-engineering
// path, weighted towards temperature and rainfall.
func (p Params) ClimateSuitabilityFeature(tempC, rainfallMM, elevationM float64) float64 {
	return featureTempWeight*p.TemperatureScore(tempC) +
		featureRainfallWeight*p.RainfallScore(rainfallMM) +
		featureElevationWeight*p.ElevationScore(elevationM)
}

// ClimateSuitability is the climate index used by grading, forecasting and
// recommendations, weighted towards elevation.
func (p Params) ClimateSuitability(tempC, rainfallMM, elevationM float64) float64 {
	return climateTempWeight*p.TemperatureScore(tempC) +
		climateRainfallWeight*p.RainfallScore(rainfallMM) +
		climateElevationWeight*p.ElevationScore(elevationM)
}

// EnvironmentalStress averages the unclamped distance of each condition from
// its optimum and clamps the mean to [0,1]. Higher is worse.
func (p Params) EnvironmentalStress(tempC, rainfallMM, pH, elevationM float64) float64 {
	temp := math.Abs(tempC-p.TemperatureCenter) / p.TemperatureRange
	rain := math.Abs(rainfallMM-p.RainfallOptimum) / p.RainfallOptimum
	ph := math.Abs(pH-p.PHOptimum) / p.PHRange
	elev := math.Abs(elevationM-p.ElevationCenter) / p.ElevationRange
	return clamp01((temp + rain + ph + elev) / 4)
}

// OverallQualityIndex combines the indices into one quality figure.
func OverallQualityIndex(climate, soil, moisture, stress float64) float64 {
	return qualityClimateWeight*climate +
		qualitySoilWeight*soil +
		qualityMoistureWeight*moisture +
		qualityStressWeight*(1-stress)
}

// Profile is the full set of scores and indices for one site.
type Profile struct {
	ElevationScore      float64 `json:"elevation_score"`
	TemperatureScore    float64 `json:"temperature_score"`
	RainfallScore       float64 `json:"rainfall_score"`
	ClimateSuitability  float64 `json:"climate_suitability"`
	SoilSuitability     float64 `json:"soil_suitability"`
	MoistureSuitability float64 `json:"moisture_suitability"`
	EnvironmentalStress float64 `json:"environmental_stress_index"`
	OverallQualityIndex float64 `json:"overall_quality_index"`
}

// Evaluate scores a site.
func (p Params) Evaluate(site model.Site) Profile {
	return p.EvaluateWithStress(site, nil)
}

// EvaluateWithStress scores a site, using stress instead of the computed
// environmental stress when it is non-nil.
func (p Params) EvaluateWithStress(site model.Site, stress *float64) Profile {
	prof := Profile{
		ElevationScore:      p.ElevationScore(site.ElevationM),
		TemperatureScore:    p.TemperatureScore(site.TemperatureC),
		RainfallScore:       p.RainfallScore(site.RainfallMM),
		ClimateSuitability:  p.ClimateSuitability(site.TemperatureC, site.RainfallMM, site.ElevationM),
		SoilSuitability:     p.SoilSuitability(site.SoilPH),
		MoistureSuitability: p.MoistureSuitability(site.SoilMoisturePct),
	}
	if stress != nil {
		prof.EnvironmentalStress = *stress
	} else {
		prof.EnvironmentalStress = p.EnvironmentalStress(site.TemperatureC, site.RainfallMM, site.SoilPH, site.ElevationM)
	}
	prof.OverallQualityIndex = OverallQualityIndex(prof.ClimateSuitability, prof.SoilSuitability,
		prof.MoistureSuitability, prof.EnvironmentalStress)
	return prof
}

// Rounded returns the profile with every figure rounded to 3 decimals.
func (pr Profile) Rounded() Profile {
	r := func(v float64) float64 { return model.Round(v, 3) }
	return Profile{
		ElevationScore:      r(pr.ElevationScore),
		TemperatureScore:    r(pr.TemperatureScore),
		RainfallScore:       r(pr.RainfallScore),
		ClimateSuitability:  r(pr.ClimateSuitability),
		SoilSuitability:     r(pr.SoilSuitability),
		MoistureSuitability: r(pr.MoistureSuitability),
		EnvironmentalStress: r(pr.EnvironmentalStress),
		OverallQualityIndex: r(pr.OverallQualityIndex),
	}
}

var defaults = DefaultParams()

// ElevationScore scores elevation with the default optima.
func ElevationScore(elevationM float64) float64 { return defaults.ElevationScore(elevationM) }

// TemperatureScore scores temperature with the default optima.
func TemperatureScore(tempC float64) float64 { return defaults.TemperatureScore(tempC) }

// RainfallScore scores rainfall with the default optimum.
func RainfallScore(rainfallMM float64) float64 { return defaults.RainfallScore(rainfallMM) }

// SoilSuitability scores pH with the default optimum.
func SoilSuitability(pH float64) float64 { return defaults.SoilSuitability(pH) }

// MoistureSuitability scores soil moisture with the default saturation point.
func MoistureSuitability(pct float64) float64 { return defaults.MoistureSuitability(pct) }

// ClimateSuitability computes the prediction-path climate index with the default optima.
func ClimateSuitability(tempC, rainfallMM, elevationM float64) float64 {
	return defaults.ClimateSuitability(tempC, rainfallMM, elevationM)
}

// ClimateSuitabilityFeature computes the feature-path climate index with the default optima.
func ClimateSuitabilityFeature(tempC, rainfallMM, elevationM float64) float64 {
	return defaults.ClimateSuitabilityFeature(tempC, rainfallMM, elevationM)
}

// EnvironmentalStress computes the stress index with the default optima.
func EnvironmentalStress(tempC, rainfallMM, pH, elevationM float64) float64 {
	return defaults.EnvironmentalStress(tempC, rainfallMM, pH, elevationM)
}
