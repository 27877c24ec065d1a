package samplegen

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/robusta/internal/domain/engine"
)

// Tolerance for comparing scores that went through JSON.
const scoreEpsilon = 1e-9

// checkAssessment compares a stored assessment with a local evaluation of
// the same set. Grade and cupping score do not depend on server config.
func checkAssessment(local *engine.Engine, s Submission, got engine.Assessment) error {
	want, err := local.Assess(s.ID, time.Time{}, s.MeasurementSet)
	if err != nil {
		return fmt.Errorf("assess %s locally: %w", s.ID, err)
	}
	if got.ID != s.ID {
		return fmt.Errorf("stored id %q, want %q", got.ID, s.ID)
	}
	if got.Grade != want.Grade {
		return fmt.Errorf("%s: grade %s, want %s", s.ID, got.Grade, want.Grade)
	}
	if math.Abs(got.CuppingScore-want.CuppingScore) > scoreEpsilon {
		return fmt.Errorf("%s: cupping score %.2f, want %.2f", s.ID, got.CuppingScore, want.CuppingScore)
	}
	return nil
}

// checkTop verifies ranks are dense from 1 and scores never increase,
// with ties broken by id.
func checkTop(entries []Entry) error {
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d has rank %d", i, e.Rank)
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		if e.CuppingScore > prev.CuppingScore {
			return fmt.Errorf("entry %d scores %.2f above entry %d (%.2f)", i, e.CuppingScore, i-1, prev.CuppingScore)
		}
		if e.CuppingScore == prev.CuppingScore && e.ID < prev.ID {
			return fmt.Errorf("tie at %.2f not ordered by id: %s before %s", e.CuppingScore, prev.ID, e.ID)
		}
	}
	return nil
}

// checkDistribution verifies the grade counts cover at least the sets this
// run stored. The store may hold assessments from earlier runs.
func checkDistribution(rows []GradeCount, stored int) error {
	total := 0
	for _, r := range rows {
		total += r.Count
	}
	if total < stored {
		return fmt.Errorf("distribution counts %d assessments, run stored %d", total, stored)
	}
	return nil
}
