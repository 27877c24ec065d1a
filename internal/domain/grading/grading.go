// Package grading classifies coffee samples into grades and estimates their
// cupping score.
package grading

import "github.com/okian/robusta/internal/domain/model"

// Thresholds of the Fine/Premium/Commercial rule.
const (
	FineMaxSecondary    = 5
	PremiumMaxDefects   = 12
	MinSpecialtyCupping = 80.0
	DefaultCuppingScore = 82.0
)

// FinePremiumGrade applies the Fine Robusta rule: Fine requires no primary
// defects, at most 5 secondary defects and a specialty cupping score; Premium
// allows up to 12 combined defects at the same score. Anything else, including
// every sample scoring below 80, is Commercial.
func FinePremiumGrade(primary, secondary int, cupping float64) model.Grade {
	if cupping < MinSpecialtyCupping {
		return model.GradeCommercial
	}
	if primary == 0 && secondary <= FineMaxSecondary {
		return model.GradeFine
	}
	if primary+secondary <= PremiumMaxDefects {
		return model.GradePremium
	}
	return model.GradeCommercial
}

// StandardsGrade maps a total defect percentage to the 1-5 national standards
// grade. Boundaries belong to the better grade.
func StandardsGrade(defectPct float64) int {
	switch {
	case defectPct <= 10:
		return 1
	case defectPct <= 15:
		return 2
	case defectPct <= 25:
		return 3
	case defectPct <= 40:
		return 4
	default:
		return 5
	}
}

// BeanSizeClass classifies a screen size in mm. Boundaries belong to the
// larger class.
func BeanSizeClass(screenMM float64) model.SizeClass {
	switch {
	case screenMM >= 7.5:
		return model.SizeLarge
	case screenMM >= 6.5:
		return model.SizeMedium
	case screenMM >= 5.5:
		return model.SizeSmall
	default:
		return model.SizeBelowStandard
	}
}

// Sampling describes the assumed defect-count sample. Defect counts are per
// sample, and the bean count is derived from weights, not measured.
type Sampling struct {
	SampleWeightG float64
	BeanWeightG   float64
}

// DefaultSampling is a 350g sample of 0.15g beans, roughly 2333 beans.
func DefaultSampling() Sampling {
	return Sampling{SampleWeightG: 350, BeanWeightG: 0.15}
}

// BeanCount is the assumed number of beans in the sample.
func (s Sampling) BeanCount() float64 {
	return s.SampleWeightG / s.BeanWeightG
}

// DefectPercentage is the share of defective beans in the sample, in percent.
func (s Sampling) DefectPercentage(primary, secondary int) float64 {
	return float64(primary+secondary) / s.BeanCount() * 100
}

// DefectPercentage uses the default sampling assumption.
func DefectPercentage(primary, secondary int) float64 {
	return DefaultSampling().DefectPercentage(primary, secondary)
}
