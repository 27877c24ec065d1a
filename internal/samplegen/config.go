// Package samplegen drives a running grading service with generated
// measurement sets and checks what it stores against a local engine.
package samplegen

import (
	"time"

	"github.com/okian/robusta/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string        // service root, e.g. http://localhost:9080
	Count        int           // measurement sets to generate
	Duplicates   int           // already-sent sets to submit a second time
	Workers      int           // concurrent submitters and pollers
	Seed         uint64        // generator seed; equal seeds give equal sets
	Timeout      time.Duration // per HTTP request
	MaxRetries   uint64        // per submission on 429 and 5xx
	PollInterval time.Duration
	PollTimeout  time.Duration // per assessment
	TopN         int
	OutputFile   string // generated sets as JSON; empty skips the file
	Verbose      bool
}

// Submission is one POST /assessments body.
type Submission struct {
	ID string `json:"assessment_id"`
	model.MeasurementSet
}

// Ack is the POST /assessments response.
type Ack struct {
	Status    string `json:"status"`
	ID        string `json:"assessment_id"`
	Duplicate bool   `json:"duplicate"`
}

// Entry is one GET /assessments/top row.
type Entry struct {
	Rank         int     `json:"rank"`
	ID           string  `json:"assessment_id"`
	Grade        string  `json:"grade"`
	CuppingScore float64 `json:"cupping_score"`
}

// GradeCount is one GET /grades/distribution row.
type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Accepted   int
	Duplicate  int
	Failed     int
	Retries    int
	Verified   int
	Mismatched int
	Missing    int
	TopEntries int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
