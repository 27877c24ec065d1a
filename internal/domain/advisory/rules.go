package advisory

import "github.com/okian/robusta/internal/domain/model"

// Thresholds checked by the default rules.
const (
	MaxSecondaryDefects = 5
	MinTemperatureC     = 13.0
	MaxTemperatureC     = 26.0
	MinElevationM       = 600.0
	MaxElevationM       = 1200.0
	MinRainfallMM       = 150.0
	MinSoilPH           = 5.6
	MaxSoilPH           = 6.5
	MinBeanScreenMM     = 6.5
	MaturityMonths      = 36
)

// DefaultRules returns the standard rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "commercial_grade",
			When: func(in Input) bool { return in.Grade == model.GradeCommercial },
			Then: func(Input) []Advice {
				return messages(Critical,
					"Coffee graded as Commercial - Below Fine/Premium standards",
					"Reduce defects through better harvesting (selective picking only)",
					"Improve processing: Proper fermentation (18-24hrs), clean water, timely drying",
					"Better sorting: Remove all defective beans before final processing",
					"Quality control: Regular inspection and grading throughout process",
				)
			},
		},
		{
			Name: "primary_defects",
			When: func(in Input) bool { return in.PrimaryDefects > 0 },
			Then: func(Input) []Advice {
				return messages(Critical,
					"Primary defects detected! These are critical quality issues.",
					"Check for mold during storage (control humidity <60%)",
					"Prevent over-fermentation (max 24 hours)",
					"Avoid harvesting overripe or ground cherries",
					"Implement pest control for coffee berry borer",
				)
			},
		},
		{
			Name: "secondary_defects",
			When: func(in Input) bool { return in.SecondaryDefects > MaxSecondaryDefects },
			Then: func(Input) []Advice {
				return messages(Warning,
					"High secondary defects - Exceeds Fine Robusta standards",
					"Harvest only ripe cherries (avoid immature/green)",
					"Careful handling to prevent breakage",
					"Proper drying (avoid over/under drying)",
					"Improve soil fertility and plant nutrition",
				)
			},
		},
		{
			Name: "temperature",
			When: func(in Input) bool { return in.TemperatureC < MinTemperatureC || in.TemperatureC > MaxTemperatureC },
			Then: func(in Input) []Advice {
				return append(
					messages(Warning, "Temperature ("+formatNumber(in.TemperatureC)+"°C) outside optimal range (13-26°C)"),
					messages(Suggestion,
						"Implement shade management (30-40% coverage)",
						"Consider windbreaks for temperature moderation",
					)...)
			},
		},
		{
			Name: "low_elevation",
			When: func(in Input) bool { return in.ElevationM < MinElevationM },
			Then: func(in Input) []Advice {
				return append(
					messages(Warning, "Elevation ("+formatNumber(in.ElevationM)+"m) below optimal range (600-1,200 masl)"),
					messages(Suggestion,
						"Robusta performs best at 600-1,200 masl",
						"Lower elevations may result in lower quality beans",
						"Consider improved agronomic practices to compensate",
					)...)
			},
		},
		{
			Name: "high_elevation",
			When: func(in Input) bool { return in.ElevationM > MaxElevationM },
			Then: func(in Input) []Advice {
				return append(
					messages(Warning, "Elevation ("+formatNumber(in.ElevationM)+"m) above optimal range (600-1,200 masl)"),
					messages(Suggestion,
						"Robusta may experience stress at higher elevations",
						"Consider switching to Arabica for elevations >900 masl",
						"Implement cold protection measures if needed",
					)...)
			},
		},
		{
			Name: "low_rainfall",
			When: func(in Input) bool { return in.RainfallMM < MinRainfallMM },
			Then: func(in Input) []Advice {
				return append(
					messages(Warning, "Low rainfall ("+formatNumber(in.RainfallMM)+"mm) - Below optimal 200mm"),
					messages(Suggestion,
						"Implement drip irrigation during dry periods",
						"Apply mulching to retain soil moisture",
					)...)
			},
		},
		{
			Name: "acidic_soil",
			When: func(in Input) bool { return in.SoilPH < MinSoilPH },
			Then: func(in Input) []Advice {
				return append(
					messages(Warning, "Soil pH ("+formatNumber(in.SoilPH)+") too acidic"),
					messages(Suggestion, "Apply agricultural lime to increase pH to 5.6-6.5 range")...)
			},
		},
		{
			Name: "alkaline_soil",
			When: func(in Input) bool { return in.SoilPH > MaxSoilPH },
			Then: func(in Input) []Advice {
				return append(
					messages(Warning, "Soil pH ("+formatNumber(in.SoilPH)+") too alkaline"),
					messages(Suggestion, "Apply sulfur or organic matter to decrease pH")...)
			},
		},
		{
			Name: "small_beans",
			When: func(in Input) bool { return in.BeanScreenMM < MinBeanScreenMM },
			Then: func(Input) []Advice {
				return messages(Suggestion,
					"Bean size below optimal - Focus on:",
					"Improve plant nutrition (complete fertilizer 14-14-14)",
					"Ensure adequate water during cherry development",
					"Proper spacing (3m x 2m) for better growth",
				)
			},
		},
		{
			Name: "immature_plants",
			When: func(in Input) bool { return in.PlantAgeMonths < MaturityMonths },
			Then: func(Input) []Advice {
				return messages(Suggestion,
					"Plant not yet mature - Robusta production starts at 36 months",
					"Continue vegetative growth management",
					"Focus on pruning and desuckering",
				)
			},
		},
		{
			Name: "specialty_grade",
			When: func(in Input) bool { return in.Grade == model.GradeFine || in.Grade == model.GradePremium },
			Then: func(in Input) []Advice {
				out := messages(Maintenance,
					"Excellent! Meets "+string(in.Grade)+" Robusta standards",
					"Continue current best practices",
					"Regular monitoring of all parameters",
					"Consistent quality control procedures",
					"Proper post-harvest handling and storage",
				)
				if in.Grade == model.GradeFine {
					out = append(out, messages(Maintenance,
						"Premium Market Ready! Your coffee qualifies for specialty markets.")...)
				}
				return out
			},
		},
	}
}
