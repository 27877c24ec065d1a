package samplegen

import (
	"fmt"
	"math/rand/v2"

	"github.com/okian/robusta/internal/domain/model"
)

// Lot profiles. Clean high-altitude lots should land in Fine, defect-heavy
// lowland lots in Commercial, the rest anywhere.
const (
	profileClean = iota
	profileTypical
	profileDefective
	profileWide
	profileCount
)

// Generate returns n measurement sets with ids "<batch>-<index>". The same
// seed always yields the same sets.
func Generate(seed uint64, n int, batch string) []Submission {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // load data, not secrets
	out := make([]Submission, n)
	for i := range out {
		out[i] = Submission{
			ID:             fmt.Sprintf("%s-%06d", batch, i),
			MeasurementSet: measurement(r),
		}
	}
	return out
}

func between(r *rand.Rand, lo, hi float64) float64 {
	return model.Round(lo+r.Float64()*(hi-lo), 2)
}

func intBetween(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

func measurement(r *rand.Rand) model.MeasurementSet {
	m := model.MeasurementSet{
		Processing:              model.ProcessingMethod(r.IntN(2)),
		Color:                   model.BeanColor(r.IntN(3)),
		BeanScreenMM:            between(r, 5, 8.5),
		PlantAgeMonths:          intBetween(r, 6, 240),
		RainfallMM:              between(r, 80, 320),
		SoilPH:                  between(r, 4.8, 7.2),
		SoilMoisturePct:         between(r, 15, 55),
		FarmAreaHa:              between(r, 0.5, 25),
		Fertilization:           model.NonOrganic,
		FertilizationFrequency:  intBetween(r, model.MinFrequency, model.MaxFrequency),
		PestManagementFrequency: intBetween(r, model.MinFrequency, model.MaxFrequency),
	}
	if r.IntN(3) == 0 {
		m.Fertilization = model.Organic
	}

	switch r.IntN(profileCount) {
	case profileClean:
		m.ElevationM = between(r, 900, 1400)
		m.TemperatureC = between(r, 20, 26)
		m.MoisturePct = between(r, 10, 12.5)
		m.PrimaryDefects = 0
		m.SecondaryDefects = intBetween(r, 0, 4)
	case profileTypical:
		m.ElevationM = between(r, 400, 1000)
		m.TemperatureC = between(r, 22, 30)
		m.MoisturePct = between(r, 10, 14)
		m.PrimaryDefects = intBetween(r, 0, 3)
		m.SecondaryDefects = intBetween(r, 2, 10)
	case profileDefective:
		m.ElevationM = between(r, 50, 500)
		m.TemperatureC = between(r, 26, 34)
		m.MoisturePct = between(r, 12, 18)
		m.PrimaryDefects = intBetween(r, 3, 20)
		m.SecondaryDefects = intBetween(r, 5, 40)
	default:
		m.ElevationM = between(r, 0, 2000)
		m.TemperatureC = between(r, 12, 36)
		m.MoisturePct = between(r, 8, 20)
		m.PrimaryDefects = intBetween(r, 0, model.MaxDefects)
		m.SecondaryDefects = intBetween(r, 0, model.MaxDefects)
	}
	return m
}
