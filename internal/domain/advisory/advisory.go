// Package advisory turns grading results and site conditions into
// agronomic recommendations.
package advisory

import (
	"strconv"
	"strings"

	"github.com/okian/robusta/internal/domain/model"
)

// Bucket is a recommendation category.
type Bucket int

const (
	Critical Bucket = iota
	Warning
	Suggestion
	Maintenance
)

func (b Bucket) String() string {
	switch b {
	case Critical:
		return "critical"
	case Warning:
		return "warnings"
	case Suggestion:
		return "suggestions"
	case Maintenance:
		return "maintenance"
	}
	return "unknown"
}

// Input is what the rules look at.
type Input struct {
	Grade            model.Grade
	PrimaryDefects   int
	SecondaryDefects int
	TemperatureC     float64
	ElevationM       float64
	RainfallMM       float64
	SoilPH           float64
	BeanScreenMM     float64
	PlantAgeMonths   int
}

// Advice is one message destined for a bucket.
type Advice struct {
	Bucket  Bucket
	Message string
}

// Rule fires its advice when When holds.
type Rule struct {
	Name string
	When func(Input) bool
	Then func(Input) []Advice
}

// Recommendations holds the generated messages per bucket. Empty buckets are
// omitted when serialized.
type Recommendations struct {
	Critical    []string `json:"critical,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Maintenance []string `json:"maintenance,omitempty"`
}

// Empty reports whether no rule fired.
func (r Recommendations) Empty() bool {
	return len(r.Critical)+len(r.Warnings)+len(r.Suggestions)+len(r.Maintenance) == 0
}

func (r *Recommendations) add(a Advice) {
	switch a.Bucket {
	case Critical:
		r.Critical = append(r.Critical, a.Message)
	case Warning:
		r.Warnings = append(r.Warnings, a.Message)
	case Suggestion:
		r.Suggestions = append(r.Suggestions, a.Message)
	case Maintenance:
		r.Maintenance = append(r.Maintenance, a.Message)
	}
}

// Advisor evaluates an ordered rule table.
type Advisor struct {
	rules []Rule
}

// New creates an Advisor over rules, or DefaultRules when none are given.
func New(rules ...Rule) *Advisor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Advisor{rules: rules}
}

// Generate evaluates every rule in order. Rules are independent; messages
// within a bucket keep rule order.
func (a *Advisor) Generate(in Input) Recommendations {
	var out Recommendations
	for _, r := range a.rules {
		if !r.When(in) {
			continue
		}
		for _, adv := range r.Then(in) {
			out.add(adv)
		}
	}
	return out
}

// Fired lists the names of the rules that hold for in.
func (a *Advisor) Fired(in Input) []string {
	var names []string
	for _, r := range a.rules {
		if r.When(in) {
			names = append(names, r.Name)
		}
	}
	return names
}

// formatNumber renders v the way measurements are quoted back to growers:
// shortest form, always with a decimal point.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func messages(b Bucket, msgs ...string) []Advice {
	out := make([]Advice, len(msgs))
	for i, m := range msgs {
		out[i] = Advice{Bucket: b, Message: m}
	}
	return out
}
