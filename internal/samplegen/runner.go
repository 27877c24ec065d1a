package samplegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/pkg/logger"
)

const (
	directoryPermission  = 0o750
	filePermission       = 0o600
	percentageMultiplier = 100
)

// ErrVerification is returned when stored assessments disagree with the
// local engine or never appear.
var ErrVerification = errors.New("verification failed")

// Run generates, submits, awaits and verifies one batch.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("sample-gen")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting sample run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("count", cfg.Count),
		logger.Int("duplicates", cfg.Duplicates),
		logger.Int("workers", cfg.Workers),
		logger.String("seed", strconv.FormatUint(cfg.Seed, 10)))

	if _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	batch := uuid.NewString()
	subs := Generate(cfg.Seed, cfg.Count, batch)
	stats.Generated = len(subs)

	if cfg.OutputFile != "" {
		if err := saveSubmissions(cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save generated sets", logger.Error(err))
		}
	}

	sent := submitAll(ctx, c, cfg, subs, stats)
	if cfg.Duplicates > 0 {
		resend := subs[:min(cfg.Duplicates, len(subs))]
		submitAll(ctx, c, cfg, resend, stats)
	}
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("retries", stats.Retries))

	verifyAll(ctx, c, cfg, sent, stats)

	var top []Entry
	if _, err := c.do(ctx, http.MethodGet, "/assessments/top?limit="+strconv.Itoa(cfg.TopN), nil, &top); err != nil {
		return stats, fmt.Errorf("fetch top assessments: %w", err)
	}
	stats.TopEntries = len(top)
	if err := checkTop(top); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	var dist []GradeCount
	if _, err := c.do(ctx, http.MethodGet, "/grades/distribution", nil, &dist); err != nil {
		return stats, fmt.Errorf("fetch grade distribution: %w", err)
	}
	if err := checkDistribution(dist, stats.Verified+stats.Mismatched); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	if stats.Mismatched > 0 || stats.Missing > 0 {
		return stats, fmt.Errorf("%w: %d mismatched, %d missing", ErrVerification, stats.Mismatched, stats.Missing)
	}
	return stats, nil
}

// submitAll posts subs with cfg.Workers goroutines and returns the ones the
// service accepted.
func submitAll(ctx context.Context, c *client, cfg *Config, subs []Submission, stats *Stats) []Submission {
	log := logger.Get().Named("sample-gen")
	accepted := make([]bool, len(subs))
	var (
		submitted int64
		ok        int64
		dup       int64
		failed    int64
		retries   int64
	)
	onRetry := func() { atomic.AddInt64(&retries, 1) }

	indexes := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				ack, err := c.submit(ctx, subs[i], cfg.MaxRetries, onRetry)
				atomic.AddInt64(&submitted, 1)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "submission failed", logger.String("id", subs[i].ID), logger.Error(err))
					}
				case ack.Duplicate:
					atomic.AddInt64(&dup, 1)
				default:
					atomic.AddInt64(&ok, 1)
					accepted[i] = true
				}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range subs {
			select {
			case <-ctx.Done():
				return
			case indexes <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submitted += int(submitted)
	stats.Accepted += int(ok)
	stats.Duplicate += int(dup)
	stats.Failed += int(failed)
	stats.Retries += int(retries)

	out := make([]Submission, 0, ok)
	for i, s := range subs {
		if accepted[i] {
			out = append(out, s)
		}
	}
	return out
}

// verifyAll waits for every accepted set and compares it with a local
// evaluation.
func verifyAll(ctx context.Context, c *client, cfg *Config, subs []Submission, stats *Stats) {
	log := logger.Get().Named("sample-gen")
	local := engine.New()
	var verified, mismatched, missing int64

	work := make(chan Submission, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				var got engine.Assessment
				if err := c.await(ctx, s.ID, cfg.PollInterval, cfg.PollTimeout, &got); err != nil {
					atomic.AddInt64(&missing, 1)
					log.Warn(ctx, "assessment never stored", logger.String("id", s.ID), logger.Error(err))
					continue
				}
				if err := checkAssessment(local, s, got); err != nil {
					atomic.AddInt64(&mismatched, 1)
					log.Error(ctx, "assessment mismatch", logger.Error(err))
					continue
				}
				atomic.AddInt64(&verified, 1)
			}
		}()
	}
	for _, s := range subs {
		work <- s
	}
	close(work)
	wg.Wait()

	stats.Verified = int(verified)
	stats.Mismatched = int(mismatched)
	stats.Missing = int(missing)
}

func saveSubmissions(filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal submissions: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Accepted+stats.Duplicate) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("retries", stats.Retries),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("missing", stats.Missing),
		logger.Int("topEntries", stats.TopEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("submissionsPerSecond", perSecond))
}
