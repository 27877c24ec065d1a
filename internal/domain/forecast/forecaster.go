package forecast

import (
	"math"

	"github.com/okian/robusta/internal/domain/model"
)

// Horizon limits in years.
const (
	MinYears     = 1
	MaxYears     = 10
	DefaultYears = 5
)

// Input is everything the forecaster needs for one farm lot.
type Input struct {
	PlantAgeMonths      int
	FarmAreaHa          float64
	ClimateSuitability  float64
	SoilSuitability     float64
	OverallQualityIndex float64
	Fertilization       model.FertilizationType
	FertilizationFreq   int
	PestFreq            int
	Years               int
}

// YearRecord is the projection for one future year.
type YearRecord struct {
	Year                  int     `json:"year"`
	AgeMonths             int     `json:"age_months"`
	YieldKgHa             float64 `json:"yield_kg_ha"`
	TotalYieldKg          float64 `json:"total_yield_kg"`
	FineProbability       float64 `json:"fine_probability"`
	PremiumProbability    float64 `json:"premium_probability"`
	CommercialProbability float64 `json:"commercial_probability"`
	FineYieldKgHa         float64 `json:"fine_yield_kg_ha"`
	PremiumYieldKgHa      float64 `json:"premium_yield_kg_ha"`
	CommercialYieldKgHa   float64 `json:"commercial_yield_kg_ha"`
}

// Forecaster projects yields with fixed base and maximum yields.
type Forecaster struct {
	baseYield float64
	maxYield  float64
}

// New creates a Forecaster. Without options it uses Robusta averages of
// 1200 kg/ha base and 2500 kg/ha maximum.
func New(opts ...Option) *Forecaster {
	f := &Forecaster{
		baseYield: DefaultBaseYield,
		maxYield:  DefaultMaxYield,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Validate checks the forecast horizon and management frequencies.
func (in Input) Validate() error {
	if err := model.CheckIntRange("forecast_years", in.Years, MinYears, MaxYears); err != nil {
		return err
	}
	if err := model.CheckIntRange("fertilization_frequency", in.FertilizationFreq, model.MinFrequency, model.MaxFrequency); err != nil {
		return err
	}
	if err := model.CheckIntRange("pest_management_frequency", in.PestFreq, model.MinFrequency, model.MaxFrequency); err != nil {
		return err
	}
	if in.PlantAgeMonths < 0 {
		return model.Invalid("plant_age_months", "plant_age_months must not be negative, got %d", in.PlantAgeMonths)
	}
	if in.FarmAreaHa < 0 || math.IsNaN(in.FarmAreaHa) {
		return model.Invalid("farm_area_ha", "farm_area_ha must not be negative")
	}
	return nil
}

// Project returns one record per year, year 1 first. Management and
// environment stay fixed across the horizon; only tree age advances.
func (f *Forecaster) Project(in Input) ([]YearRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	fert := FertilizationFactor(in.Fertilization, in.FertilizationFreq)
	pest := PestFactor(in.PestFreq)
	mix := GradeMix(QualityScore(fert, pest, in.ClimateSuitability, in.SoilSuitability))

	records := make([]YearRecord, 0, in.Years)
	for year := 1; year <= in.Years; year++ {
		age := in.PlantAgeMonths + year*12
		y := f.baseYield * AgeFactor(age) * fert * pest *
			in.ClimateSuitability * in.SoilSuitability * in.OverallQualityIndex
		y = math.Min(y, f.maxYield)
		records = append(records, YearRecord{
			Year:                  year,
			AgeMonths:             age,
			YieldKgHa:             model.Round(y, 2),
			TotalYieldKg:          model.Round(y*in.FarmAreaHa, 2),
			FineProbability:       mix.Fine,
			PremiumProbability:    mix.Premium,
			CommercialProbability: mix.Commercial,
			FineYieldKgHa:         model.Round(y*mix.Fine, 2),
			PremiumYieldKgHa:      model.Round(y*mix.Premium, 2),
			CommercialYieldKgHa:   model.Round(y*mix.Commercial, 2),
		})
	}
	return records, nil
}

// Summary aggregates a projection.
type Summary struct {
	TotalYieldKg             float64 `json:"total_yield_kg"`
	AvgYieldKgHa             float64 `json:"avg_yield_kg_per_ha"`
	AvgFineProbability       float64 `json:"avg_fine_probability"`
	AvgPremiumProbability    float64 `json:"avg_premium_probability"`
	AvgCommercialProbability float64 `json:"avg_commercial_probability"`
	ForecastYears            int     `json:"forecast_years"`
}

// Summarize totals the per-year yield and averages the yield per hectare and
// the grade probabilities over the horizon.
func Summarize(records []YearRecord) Summary {
	s := Summary{ForecastYears: len(records)}
	if len(records) == 0 {
		return s
	}
	var total, yield, fine, premium, commercial float64
	for _, r := range records {
		total += r.TotalYieldKg
		yield += r.YieldKgHa
		fine += r.FineProbability
		premium += r.PremiumProbability
		commercial += r.CommercialProbability
	}
	n := float64(len(records))
	s.TotalYieldKg = model.Round(total, 2)
	s.AvgYieldKgHa = model.Round(yield/n, 2)
	s.AvgFineProbability = model.Round(fine/n, 3)
	s.AvgPremiumProbability = model.Round(premium/n, 3)
	s.AvgCommercialProbability = model.Round(commercial/n, 3)
	return s
}
