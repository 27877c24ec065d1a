package grading

import (
	"math"

	"github.com/okian/robusta/internal/domain/agronomy"
	"github.com/okian/robusta/internal/domain/model"
)

const (
	cuppingBase  = 75.0
	cuppingSpan  = 20.0
	cuppingFloor = 60.0
	cuppingCeil  = 95.0

	// used when the sample altitude is unknown
	unknownAltitudeScore = 0.8
	unknownColorScore    = 0.85
)

var colorScores = map[model.BeanColor]float64{
	model.Green:       0.80,
	model.BluishGreen: 0.90,
	model.BlueGreen:   0.95,
}

// CuppingBreakdown is the full cupping estimate with the factors that made it.
type CuppingBreakdown struct {
	ElevationScore  float64 `json:"elevation_score"`
	ProcessingScore float64 `json:"processing_score"`
	ColorScore      float64 `json:"color_score"`
	MoistureScore   float64 `json:"moisture_score"`
	DefectPenalty   float64 `json:"defect_penalty"`
	QualityIndex    float64 `json:"quality_index"`
	Score           float64 `json:"cupping_score"`
}

// EstimateCupping estimates the cupping score of a green-bean sample from its
// measurements. The result is clamped to [60,95] and rounded to 1 decimal.
func EstimateCupping(s model.Sample) CuppingBreakdown {
	return EstimateCuppingWith(agronomy.DefaultParams(), s)
}

// EstimateCuppingWith is EstimateCupping with the elevation scored against p.
func EstimateCuppingWith(p agronomy.Params, s model.Sample) CuppingBreakdown {

	b := CuppingBreakdown{
		ElevationScore:  unknownAltitudeScore,
		ProcessingScore: 0.85,
		ColorScore:      unknownColorScore,
		MoistureScore:   MoistureScore(s.MoisturePct),
		DefectPenalty:   DefectPenalty(s.PrimaryDefects, s.SecondaryDefects),
	}
	if s.AltitudeM != 0 {
		b.ElevationScore = p.ElevationScore(s.AltitudeM)
	}
	if s.Processing == model.Washed {
		b.ProcessingScore = 0.95
	}
	if c, ok := colorScores[s.Color]; ok {
		b.ColorScore = c
	}
	b.QualityIndex = 0.25*b.ElevationScore +
		0.20*b.ProcessingScore +
		0.20*b.ColorScore +
		0.15*b.MoistureScore +
		0.20
	score := cuppingBase + b.QualityIndex*cuppingSpan + b.DefectPenalty
	b.Score = model.Round(math.Max(cuppingFloor, math.Min(cuppingCeil, score)), 1)
	return b
}

// MoistureScore rates bean moisture; 12-14% is ideal.
func MoistureScore(pct float64) float64 {
	switch {
	case pct >= 12 && pct <= 14:
		return 1.0
	case (pct >= 10 && pct < 12) || (pct > 14 && pct <= 15):
		return 0.95
	case (pct >= 8 && pct < 10) || (pct > 15 && pct <= 16):
		return 0.90
	default:
		return 0.80
	}
}

// DefectPenalty steps with the total defect count, with a further 3 points
// per primary defect.
func DefectPenalty(primary, secondary int) float64 {
	var penalty float64
	switch total := primary + secondary; {
	case total == 0:
		penalty = 0
	case total <= 5:
		penalty = -2
	case total <= 12:
		penalty = -5
	default:
		penalty = -10
	}
	if primary > 0 {
		penalty -= float64(primary) * 3
	}
	return penalty
}

// CuppingFromQuality scales an overall quality index onto the cupping scale.
// The result is neither clamped nor rounded.
func CuppingFromQuality(overallQualityIndex float64) float64 {
	return cuppingBase + overallQualityIndex*cuppingSpan
}
