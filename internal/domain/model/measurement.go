// Package model contains domain models passed between layers.
package model

import (
	"math"
)

// Input limits accepted by the grading and forecasting paths.
const (
	MaxElevationM     = 3000
	MinTemperatureC   = -10
	MaxTemperatureC   = 50
	MaxRainfallMM     = 1000
	MaxSoilPH         = 14
	MaxPercent        = 100
	MaxDefects        = 50
	MinBeanScreenMM   = 4
	MaxBeanScreenMM   = 9
	MaxPlantAgeMonths = 300
	MaxFarmAreaHa     = 1000
	MinFrequency      = 1
	MaxFrequency      = 5
)

// Sample holds the green-bean measurements of a graded sample.
type Sample struct {
	AltitudeM        float64
	Processing       ProcessingMethod
	Color            BeanColor
	MoisturePct      float64
	PrimaryDefects   int
	SecondaryDefects int
}

// TotalDefects is the combined primary and secondary defect count.
func (s Sample) TotalDefects() int { return s.PrimaryDefects + s.SecondaryDefects }

// Site holds the growing environment of a farm lot.
type Site struct {
	ElevationM      float64
	TemperatureC    float64 // monthly average
	RainfallMM      float64 // monthly
	SoilPH          float64
	SoilMoisturePct float64
}

// Management holds the farm practices that drive yield.
type Management struct {
	PlantAgeMonths          int
	FarmAreaHa              float64
	Fertilization           FertilizationType
	FertilizationFrequency  int // 1 = never .. 5 = always
	PestManagementFrequency int // 1 = never .. 5 = always
}

// MeasurementSet is the full raw input record for one assessment.
type MeasurementSet struct {
	ElevationM              float64           `json:"elevation_masl"`
	Processing              ProcessingMethod  `json:"processing_method"`
	Color                   BeanColor         `json:"colors"`
	MoisturePct             float64           `json:"moisture"`
	PrimaryDefects          int               `json:"primary_defects"`
	SecondaryDefects        int               `json:"secondary_defects"`
	BeanScreenMM            float64           `json:"bean_screen_size_mm"`
	PlantAgeMonths          int               `json:"plant_age_months"`
	TemperatureC            float64           `json:"monthly_temp_avg_c"`
	RainfallMM              float64           `json:"monthly_rainfall_mm"`
	SoilPH                  float64           `json:"soil_pH"`
	SoilMoisturePct         float64           `json:"soil_moisture_pct"`
	FarmAreaHa              float64           `json:"farm_area_ha"`
	Fertilization           FertilizationType `json:"fertilization_type"`
	FertilizationFrequency  int               `json:"fertilization_frequency"`
	PestManagementFrequency int               `json:"pest_management_frequency"`
}

// Sample projects the bean measurements. The sample altitude is the site elevation.
func (m MeasurementSet) Sample() Sample {
	return Sample{
		AltitudeM:        m.ElevationM,
		Processing:       m.Processing,
		Color:            m.Color,
		MoisturePct:      m.MoisturePct,
		PrimaryDefects:   m.PrimaryDefects,
		SecondaryDefects: m.SecondaryDefects,
	}
}

// Site projects the environment measurements.
func (m MeasurementSet) Site() Site {
	return Site{
		ElevationM:      m.ElevationM,
		TemperatureC:    m.TemperatureC,
		RainfallMM:      m.RainfallMM,
		SoilPH:          m.SoilPH,
		SoilMoisturePct: m.SoilMoisturePct,
	}
}

// Management projects the farm practice fields.
func (m MeasurementSet) Management() Management {
	return Management{
		PlantAgeMonths:          m.PlantAgeMonths,
		FarmAreaHa:              m.FarmAreaHa,
		Fertilization:           m.Fertilization,
		FertilizationFrequency:  m.FertilizationFrequency,
		PestManagementFrequency: m.PestManagementFrequency,
	}
}

// Validate checks every field against its accepted range and returns the
// first violation.
func (m MeasurementSet) Validate() error {
	if _, err := ParseProcessingMethod(int(m.Processing)); err != nil {
		return err
	}
	if _, err := ParseBeanColor(int(m.Color)); err != nil {
		return err
	}
	if _, err := ParseFertilizationType(string(m.Fertilization)); err != nil {
		return err
	}
	checks := []error{
		CheckRange("moisture", m.MoisturePct, 0, MaxPercent),
		CheckIntRange("primary_defects", m.PrimaryDefects, 0, MaxDefects),
		CheckIntRange("secondary_defects", m.SecondaryDefects, 0, MaxDefects),
		CheckRange("bean_screen_size_mm", m.BeanScreenMM, MinBeanScreenMM, MaxBeanScreenMM),
		CheckIntRange("plant_age_months", m.PlantAgeMonths, 0, MaxPlantAgeMonths),
		m.Site().Validate(),
		CheckPositive("farm_area_ha", m.FarmAreaHa, MaxFarmAreaHa),
		CheckIntRange("fertilization_frequency", m.FertilizationFrequency, MinFrequency, MaxFrequency),
		CheckIntRange("pest_management_frequency", m.PestManagementFrequency, MinFrequency, MaxFrequency),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the environment fields.
func (s Site) Validate() error {
	checks := []error{
		CheckRange("elevation_masl", s.ElevationM, 0, MaxElevationM),
		CheckRange("monthly_temp_avg_c", s.TemperatureC, MinTemperatureC, MaxTemperatureC),
		CheckRange("monthly_rainfall_mm", s.RainfallMM, 0, MaxRainfallMM),
		CheckRange("soil_pH", s.SoilPH, 0, MaxSoilPH),
		CheckRange("soil_moisture_pct", s.SoilMoisturePct, 0, MaxPercent),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// CheckRange fails when v is not a finite number within [lo, hi].
func CheckRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid(field, "%s must be a finite number", field)
	}
	if v < lo || v > hi {
		return Invalid(field, "%s must be between %g and %g, got %g", field, lo, hi, v)
	}
	return nil
}

// CheckPositive fails when v is not within (0, hi].
func CheckPositive(field string, v, hi float64) error {
	if math.IsNaN(v) || v <= 0 || v > hi {
		return Invalid(field, "%s must be greater than 0 and at most %g, got %g", field, hi, v)
	}
	return nil
}

// CheckIntRange fails when v is not within [lo, hi].
func CheckIntRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return Invalid(field, "%s must be between %d and %d, got %d", field, lo, hi, v)
	}
	return nil
}
