// Package forecast projects Robusta yield and grade mix over future years.
package forecast

import "github.com/okian/robusta/internal/domain/model"

// AgeFactor is the relative production of a tree of the given age. Trees
// bear from 36 months, peak between 6 and 10 years and decline afterwards.
func AgeFactor(months int) float64 {
	switch {
	case months < 36:
		return 0
	case months < 48:
		return 0.5
	case months < 72:
		return 0.8
	case months < 120:
		return 1.0
	case months < 180:
		return 0.9
	case months < 240:
		return 0.7
	default:
		return 0.5
	}
}

// FertilizationFactor scales yield by fertilization practice. Frequency runs
// from 1 (never) to 5 (always); organic inputs yield 15% less.
func FertilizationFactor(kind model.FertilizationType, frequency int) float64 {
	base := 1.0
	if kind == model.Organic {
		base = 0.85
	}
	return base * (0.7 + float64(frequency)*0.075)
}

// PestFactor scales yield by pest-management frequency, 1 (never) to 5 (always).
func PestFactor(frequency int) float64 {
	return 0.6 + float64(frequency)*0.1
}

// QualityScore is the management and environment score behind the grade mix.
func QualityScore(fert, pest, climate, soil float64) float64 {
	return fert*0.3 + pest*0.3 + climate*0.2 + soil*0.2
}

// Mix is the expected share of each grade in a harvest. The shares sum to 1.
type Mix struct {
	Fine       float64 `json:"fine_probability"`
	Premium    float64 `json:"premium_probability"`
	Commercial float64 `json:"commercial_probability"`
}

var mixTiers = []struct {
	min float64
	mix Mix
}{
	{0.85, Mix{Fine: 0.6, Premium: 0.35, Commercial: 0.05}},
	{0.75, Mix{Fine: 0.4, Premium: 0.45, Commercial: 0.15}},
	{0.65, Mix{Fine: 0.2, Premium: 0.5, Commercial: 0.3}},
}

var lowestMix = Mix{Fine: 0.1, Premium: 0.3, Commercial: 0.6}

// GradeMix looks up the grade mix for a quality score.
func GradeMix(qualityScore float64) Mix {
	for _, t := range mixTiers {
		if qualityScore >= t.min {
			return t.mix
		}
	}
	return lowestMix
}
