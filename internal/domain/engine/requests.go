package engine

import (
	"math"

	"github.com/okian/robusta/internal/domain/model"
)

// Defaults applied to omitted request fields.
const (
	DefaultPlantAgeMonths   = 48
	DefaultBeanScreenMM     = 6.5
	DefaultSecondaryDefects = 3 // recommendation path only
	DefaultElevationM       = 900.0
	DefaultTemperatureC     = 19.5
	DefaultRainfallMM       = 200.0
	DefaultSoilPH           = 6.0
	DefaultSoilMoisturePct  = 25.0
	DefaultFarmAreaHa       = 1.0
	DefaultFrequency        = 3

	DefaultFertilizationFactor = 0.85
	DefaultPestFactor          = 0.8
	DefaultSuitability         = 0.8
)

// SampleRequest is a legacy grading request for one green-bean sample.
// Processing method, colour and moisture are required.
type SampleRequest struct {
	Altitude         *float64 `json:"altitude,omitempty"`
	BagWeight        *float64 `json:"bag_weight,omitempty"`
	ProcessingMethod *int     `json:"processing_method,omitempty"`
	Colors           *int     `json:"colors,omitempty"`
	Moisture         *float64 `json:"moisture,omitempty"`
	PrimaryDefects   *int     `json:"category_one_defects,omitempty"`
	SecondaryDefects *int     `json:"category_two_defects,omitempty"`
}

func (r SampleRequest) sample() (model.Sample, error) {
	if r.ProcessingMethod == nil {
		return model.Sample{}, model.Required("processing_method")
	}
	if r.Colors == nil {
		return model.Sample{}, model.Required("colors")
	}
	if r.Moisture == nil {
		return model.Sample{}, model.Required("moisture")
	}
	proc, err := model.ParseProcessingMethod(*r.ProcessingMethod)
	if err != nil {
		return model.Sample{}, err
	}
	color, err := model.ParseBeanColor(*r.Colors)
	if err != nil {
		return model.Sample{}, err
	}
	s := model.Sample{
		AltitudeM:        floatOr(r.Altitude, 0),
		Processing:       proc,
		Color:            color,
		MoisturePct:      *r.Moisture,
		PrimaryDefects:   intOr(r.PrimaryDefects, 0),
		SecondaryDefects: intOr(r.SecondaryDefects, 0),
	}
	return s, firstError(
		model.CheckRange("altitude", s.AltitudeM, 0, model.MaxElevationM),
		model.CheckRange("moisture", s.MoisturePct, 0, model.MaxPercent),
		model.CheckIntRange("category_one_defects", s.PrimaryDefects, 0, math.MaxInt),
		model.CheckIntRange("category_two_defects", s.SecondaryDefects, 0, math.MaxInt),
	)
}

// SiteRequest carries the optional environment fields shared by the
// grade, yield and recommendation requests.
type SiteRequest struct {
	ElevationM      *float64 `json:"elevation_masl,omitempty"`
	TemperatureC    *float64 `json:"monthly_temp_avg_c,omitempty"`
	RainfallMM      *float64 `json:"monthly_rainfall_mm,omitempty"`
	SoilPH          *float64 `json:"soil_pH,omitempty"`
	SoilMoisturePct *float64 `json:"soil_moisture_pct,omitempty"`
}

func (r SiteRequest) site() (model.Site, error) {
	s := model.Site{
		ElevationM:      floatOr(r.ElevationM, DefaultElevationM),
		TemperatureC:    floatOr(r.TemperatureC, DefaultTemperatureC),
		RainfallMM:      floatOr(r.RainfallMM, DefaultRainfallMM),
		SoilPH:          floatOr(r.SoilPH, DefaultSoilPH),
		SoilMoisturePct: floatOr(r.SoilMoisturePct, DefaultSoilMoisturePct),
	}
	return s, s.Validate()
}

// DefectRequest carries the optional defect counts.
type DefectRequest struct {
	PrimaryDefects   *int `json:"primary_defects,omitempty"`
	SecondaryDefects *int `json:"secondary_defects,omitempty"`
}

func (r DefectRequest) counts(defaultSecondary int) (primary, secondary int, err error) {
	primary = intOr(r.PrimaryDefects, 0)
	secondary = intOr(r.SecondaryDefects, defaultSecondary)
	err = firstError(
		model.CheckIntRange("primary_defects", primary, 0, model.MaxDefects),
		model.CheckIntRange("secondary_defects", secondary, 0, model.MaxDefects),
	)
	return primary, secondary, err
}

// GradeRequest asks for a grade prediction from site conditions. Plant age
// and bean screen size are required.
type GradeRequest struct {
	SiteRequest
	DefectRequest
	PlantAgeMonths      *int     `json:"plant_age_months,omitempty"`
	BeanScreenMM        *float64 `json:"bean_screen_size_mm,omitempty"`
	EnvironmentalStress *float64 `json:"environmental_stress_index,omitempty"`
	QualityScore        *float64 `json:"quality_score,omitempty"`
}

func (r GradeRequest) validate() error {
	if r.PlantAgeMonths == nil {
		return model.Required("plant_age_months")
	}
	if r.BeanScreenMM == nil {
		return model.Required("bean_screen_size_mm")
	}
	return firstError(
		model.CheckIntRange("plant_age_months", *r.PlantAgeMonths, 0, model.MaxPlantAgeMonths),
		model.CheckRange("bean_screen_size_mm", *r.BeanScreenMM, model.MinBeanScreenMM, model.MaxBeanScreenMM),
		optionalRange("environmental_stress_index", r.EnvironmentalStress, 0, 1),
		optionalRange("quality_score", r.QualityScore, 0, model.MaxPercent),
	)
}

// YieldRequest asks for a multi-year yield forecast. Plant age is required.
type YieldRequest struct {
	SiteRequest
	PlantAgeMonths          *int     `json:"plant_age_months,omitempty"`
	FarmAreaHa              *float64 `json:"farm_area_ha,omitempty"`
	FertilizationType       *string  `json:"fertilization_type,omitempty"`
	FertilizationFrequency  *int     `json:"fertilization_frequency,omitempty"`
	PestManagementFrequency *int     `json:"pest_management_frequency,omitempty"`
	ForecastYears           *int     `json:"forecast_years,omitempty"`
}

func (r YieldRequest) management() (model.Management, error) {
	if r.PlantAgeMonths == nil {
		return model.Management{}, model.Required("plant_age_months")
	}
	kind, err := model.ParseFertilizationType(stringOr(r.FertilizationType, string(model.NonOrganic)))
	if err != nil {
		return model.Management{}, err
	}
	m := model.Management{
		PlantAgeMonths:          *r.PlantAgeMonths,
		FarmAreaHa:              floatOr(r.FarmAreaHa, DefaultFarmAreaHa),
		Fertilization:           kind,
		FertilizationFrequency:  intOr(r.FertilizationFrequency, DefaultFrequency),
		PestManagementFrequency: intOr(r.PestManagementFrequency, DefaultFrequency),
	}
	return m, firstError(
		model.CheckIntRange("plant_age_months", m.PlantAgeMonths, 0, model.MaxPlantAgeMonths),
		model.CheckPositive("farm_area_ha", m.FarmAreaHa, model.MaxFarmAreaHa),
	)
}

// QualityRequest asks for the grade mix. Every field is a 0-1 figure; a
// supplied quality score takes precedence over the factors.
type QualityRequest struct {
	QualityScore        *float64 `json:"quality_score,omitempty"`
	ClimateSuitability  *float64 `json:"climate_suitability,omitempty"`
	SoilSuitability     *float64 `json:"soil_suitability,omitempty"`
	FertilizationFactor *float64 `json:"fertilization_factor,omitempty"`
	PestFactor          *float64 `json:"pest_factor,omitempty"`
}

func (r QualityRequest) validate() error {
	return firstError(
		optionalRange("quality_score", r.QualityScore, 0, 1),
		optionalRange("climate_suitability", r.ClimateSuitability, 0, 1),
		optionalRange("soil_suitability", r.SoilSuitability, 0, 1),
		optionalRange("fertilization_factor", r.FertilizationFactor, 0, 1),
		optionalRange("pest_factor", r.PestFactor, 0, 1),
	)
}

// RecommendationRequest asks for agronomic advice. The grade is derived
// from site conditions unless supplied.
type RecommendationRequest struct {
	SiteRequest
	DefectRequest
	PlantAgeMonths *int     `json:"plant_age_months,omitempty"`
	BeanScreenMM   *float64 `json:"bean_screen_size_mm,omitempty"`
	PredictedGrade *string  `json:"predicted_grade,omitempty"`
}

func optionalRange(field string, v *float64, lo, hi float64) error {
	if v == nil {
		return nil
	}
	return model.CheckRange(field, *v, lo, hi)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// Float64 returns a pointer to v, for building requests.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for building requests.
func Int(v int) *int { return &v }

// String returns a pointer to v, for building requests.
func String(v string) *string { return &v }
