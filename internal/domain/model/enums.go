package model

import (
	"fmt"
	"strings"
)

// ProcessingMethod is the post-harvest processing route. Values match the
// integer codes accepted on the wire.
type ProcessingMethod int

const (
	Washed  ProcessingMethod = 0 // wet processed
	Natural ProcessingMethod = 1 // dry processed
)

func (p ProcessingMethod) String() string {
	switch p {
	case Washed:
		return "washed"
	case Natural:
		return "natural"
	default:
		return fmt.Sprintf("processing(%d)", int(p))
	}
}

// ParseProcessingMethod converts a wire code into a ProcessingMethod.
func ParseProcessingMethod(code int) (ProcessingMethod, error) {
	switch ProcessingMethod(code) {
	case Washed, Natural:
		return ProcessingMethod(code), nil
	}
	return 0, Invalid("processing_method", "processing_method must be 0 (washed) or 1 (natural), got %d", code)
}

// BeanColor is the visual colour class of the green beans.
type BeanColor int

const (
	Green       BeanColor = 0
	BluishGreen BeanColor = 1
	BlueGreen   BeanColor = 2
)

func (c BeanColor) String() string {
	switch c {
	case Green:
		return "green"
	case BluishGreen:
		return "bluish-green"
	case BlueGreen:
		return "blue-green"
	default:
		return fmt.Sprintf("color(%d)", int(c))
	}
}

// ParseBeanColor converts a wire code into a BeanColor.
func ParseBeanColor(code int) (BeanColor, error) {
	switch BeanColor(code) {
	case Green, BluishGreen, BlueGreen:
		return BeanColor(code), nil
	}
	return 0, Invalid("colors", "colors must be 0 (green), 1 (bluish-green) or 2 (blue-green), got %d", code)
}

// FertilizationType distinguishes organic from conventional inputs.
type FertilizationType string

const (
	Organic    FertilizationType = "Organic"
	NonOrganic FertilizationType = "Non-Organic"
)

// ParseFertilizationType accepts the labels used by farm records. An empty
// value means conventional fertilization.
func ParseFertilizationType(s string) (FertilizationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "organic":
		return Organic, nil
	case "", "non-organic", "nonorganic", "non_organic", "inorganic":
		return NonOrganic, nil
	}
	return "", Invalid("fertilization_type", "fertilization_type must be 'Organic' or 'Non-Organic', got %q", s)
}

// Grade is the Fine/Premium/Commercial classification.
type Grade string

const (
	GradeFine       Grade = "Fine"
	GradePremium    Grade = "Premium"
	GradeCommercial Grade = "Commercial"
)

// Grades lists the grades from best to worst.
var Grades = []Grade{GradeFine, GradePremium, GradeCommercial}

// ParseGrade matches a grade label case-insensitively.
func ParseGrade(s string) (Grade, error) {
	for _, g := range Grades {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", Invalid("predicted_grade", "predicted_grade must be Fine, Premium or Commercial, got %q", s)
}

// SizeClass is the screen-size class of a bean.
type SizeClass string

const (
	SizeLarge         SizeClass = "Large"
	SizeMedium        SizeClass = "Medium"
	SizeSmall         SizeClass = "Small"
	SizeBelowStandard SizeClass = "Below Standard"
)
