package forecast

// Robusta yield constants in kg/ha/year.
const (
	DefaultBaseYield = 1200.0
	DefaultMaxYield  = 2500.0
)

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithBaseYield sets the yield of a mature tree under perfect conditions.
func WithBaseYield(kgHa float64) Option {
	return func(f *Forecaster) {
		if kgHa > 0 {
			f.baseYield = kgHa
		}
	}
}

// WithMaxYield sets the yield cap.
func WithMaxYield(kgHa float64) Option {
	return func(f *Forecaster) {
		if kgHa > 0 {
			f.maxYield = kgHa
		}
	}
}
