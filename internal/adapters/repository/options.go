package repository

import "time"

// GuardOption configures a Guarded store.
type GuardOption func(*guardSettings)

type guardSettings struct {
	name        string
	maxRequests uint32
	timeout     time.Duration
	minRequests uint32
	failRatio   float64
}

func defaultGuardSettings() guardSettings {
	return guardSettings{
		name:        "assessment-store",
		maxRequests: 1,
		timeout:     30 * time.Second,
		minRequests: 5,
		failRatio:   0.5,
	}
}

// WithBreakerName names the breaker in metrics and logs.
func WithBreakerName(name string) GuardOption {
	return func(s *guardSettings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithBreakerTimeout sets how long the breaker stays open before probing.
func WithBreakerTimeout(d time.Duration) GuardOption {
	return func(s *guardSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTripThreshold trips the breaker once at least minRequests calls were
// made and the failure ratio reached ratio.
func WithTripThreshold(minRequests uint32, ratio float64) GuardOption {
	return func(s *guardSettings) {
		if minRequests > 0 {
			s.minRequests = minRequests
		}
		if ratio > 0 && ratio <= 1 {
			s.failRatio = ratio
		}
	}
}
