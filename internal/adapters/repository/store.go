// Package repository stores finished assessments and answers ranking and
// grade distribution queries over them.
package repository

import (
	"context"
	"time"

	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/internal/domain/model"
)

// Entry is one row of the cupping-score ranking.
type Entry struct {
	Rank         int         `json:"rank"`
	ID           string      `json:"assessment_id"`
	Grade        model.Grade `json:"grade"`
	CuppingScore float64     `json:"cupping_score"`
	DefectPct    float64     `json:"total_defect_pct"`
	CreatedAt    time.Time   `json:"created_at"`
}

// GradeStats aggregates the stored assessments of one grade.
type GradeStats struct {
	Grade         model.Grade `json:"grade"`
	Count         int         `json:"count"`
	MeanCupping   float64     `json:"mean_cupping_score"`
	MeanDefectPct float64     `json:"mean_defect_pct"`
}

// Store persists assessments.
type Store interface {
	// Save inserts or replaces the assessment with the same ID.
	Save(ctx context.Context, a engine.Assessment) error

	// Get returns ErrNotFound for unknown IDs.
	Get(ctx context.Context, id string) (engine.Assessment, error)

	// Top returns up to n entries by cupping score desc, then ID asc.
	Top(ctx context.Context, n int) ([]Entry, error)

	// Distribution returns one row per grade, Fine first, including empty
	// grades.
	Distribution(ctx context.Context) ([]GradeStats, error)

	Count(ctx context.Context) (int, error)
}

func entryOf(a *engine.Assessment) Entry {
	return Entry{
		ID:           a.ID,
		Grade:        a.Grade,
		CuppingScore: a.CuppingScore,
		DefectPct:    a.DefectPct,
		CreatedAt:    a.CreatedAt,
	}
}

// ranksBefore orders entries by cupping score desc, then ID asc.
func ranksBefore(a, b Entry) bool {
	if a.CuppingScore != b.CuppingScore {
		return a.CuppingScore > b.CuppingScore
	}
	return a.ID < b.ID
}

func validateSave(a *engine.Assessment) error {
	if a.ID == "" {
		return model.Required("assessment_id")
	}
	return nil
}

type gradeSums struct {
	count      int
	cupping    float64
	defectPcts float64
}

// statsAccumulator folds per-grade sums into ordered GradeStats.
type statsAccumulator map[model.Grade]*gradeSums

func (acc statsAccumulator) add(g model.Grade, count int, cuppingSum, defectSum float64) {
	s, ok := acc[g]
	if !ok {
		s = &gradeSums{}
		acc[g] = s
	}
	s.count += count
	s.cupping += cuppingSum
	s.defectPcts += defectSum
}

func (acc statsAccumulator) stats() []GradeStats {
	out := make([]GradeStats, 0, len(model.Grades))
	for _, g := range model.Grades {
		row := GradeStats{Grade: g}
		if s, ok := acc[g]; ok && s.count > 0 {
			row.Count = s.count
			row.MeanCupping = model.Round(s.cupping/float64(s.count), 2)
			row.MeanDefectPct = model.Round(s.defectPcts/float64(s.count), 2)
		}
		out = append(out, row)
	}
	return out
}
