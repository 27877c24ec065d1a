// Package agronomy scores how close a growing site is to the Robusta optimum
// and combines those scores into the composite indices used by grading and
// forecasting.
package agronomy

// Params holds the agronomic optima and tolerance bands. Every scorer is a
// linear falloff from an optimum, reaching zero at optimum ± range.
type Params struct {
	ElevationCenter   float64 // masl
	ElevationRange    float64
	TemperatureCenter float64 // °C
	TemperatureRange  float64
	RainfallOptimum   float64 // mm per month
	RainfallCap       float64 // ratio cap applied before the unit clamp
	PHOptimum         float64
	PHRange           float64
	MoistureSaturated float64 // soil moisture % at which the score saturates
}

// DefaultParams returns the Robusta optima: 600-1200 masl, 13-26°C, 200mm
// monthly rainfall, pH 6.0 ± 1.5 and 35% soil moisture.
func DefaultParams() Params {
	return Params{
		ElevationCenter:   900,
		ElevationRange:    300,
		TemperatureCenter: 19.5,
		TemperatureRange:  13,
		RainfallOptimum:   200,
		RainfallCap:       1.5,
		PHOptimum:         6.0,
		PHRange:           1.5,
		MoistureSaturated: 35,
	}
}

// Weights of the composite indices. Each set sums to 1.0.
const (
	// feature-engineering climate weights
	featureTempWeight      = 0.4
	featureRainfallWeight  = 0.4
	featureElevationWeight = 0.2

	// single-prediction climate weights
	climateTempWeight      = 0.3
	climateRainfallWeight  = 0.3
	climateElevationWeight = 0.4

	qualityClimateWeight  = 0.3
	qualitySoilWeight     = 0.3
	qualityMoistureWeight = 0.2
	qualityStressWeight   = 0.2
)
