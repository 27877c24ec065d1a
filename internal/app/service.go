// Package service ties the grading engine, the submission pipeline and the
// assessment store together behind the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/robusta/internal/adapters/mq/queue"
	"github.com/okian/robusta/internal/adapters/mq/worker"
	"github.com/okian/robusta/internal/adapters/repository"
	"github.com/okian/robusta/internal/domain/advisory"
	"github.com/okian/robusta/internal/domain/dedupe"
	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/internal/domain/model"
	"github.com/okian/robusta/pkg/logger"
	"github.com/okian/robusta/pkg/metrics"
)

const (
	defaultQueueSize  = 10000
	defaultDedupeSize = 50000
	drainTimeout      = 30 * time.Second
)

// Receipt acknowledges a submission.
type Receipt struct {
	ID        string `json:"assessment_id"`
	Duplicate bool   `json:"duplicate"`
}

// Stats is a snapshot of pipeline state.
type Stats struct {
	Started       bool  `json:"started"`
	WorkerCount   int   `json:"worker_count"`
	QueueCapacity int   `json:"queue_capacity"`
	QueueLength   int   `json:"queue_length"`
	DedupeSize    int64 `json:"dedupe_size"`
	Processed     int64 `json:"processed"`
	Assessments   int   `json:"assessments"`
}

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	engine  *engine.Engine
	store   repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	workerCount int
	queueSize   int
	dedupeSize  int
	now         func() time.Time
	newID       func() string

	started bool
	logger  logger.Logger
}

// New constructs a Service. Components are created on Start.
func New(opts ...Option) *Service {
	s := &Service{
		engine:      engine.New(),
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline and launches the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.engine, s.store,
		worker.WithWorkerOptions(worker.WithClock(s.now)))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue and waits for the backlog to drain.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping assessment service")

	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	s.logger.Info(ctx, "assessment service stopped")
	return nil
}

// Submit validates a measurement set and queues it for assessment. An empty
// id gets a fresh UUID. Resubmitting a known id is acknowledged without
// queuing it again.
func (s *Service) Submit(ctx context.Context, id string, m model.MeasurementSet) (Receipt, error) { //nolint:gocritic // hugeParam: request value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Receipt{}, ErrNotStarted
	}
	if err := m.Validate(); err != nil {
		metrics.RecordAssessmentRejected()
		return Receipt{}, err
	}
	if id == "" {
		id = s.newID()
	}

	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordAssessmentDuplicate()
		s.logger.Debug(ctx, "duplicate submission", logger.String("assessment_id", id))
		return Receipt{ID: id, Duplicate: true}, nil
	}

	err := s.queue.Submit(ctx, queue.Job{ID: id, Measurement: m, ReceivedAt: s.now()})
	if err != nil {
		s.deduper.Unrecord(ctx, id)
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
			return Receipt{}, fmt.Errorf("submit %s: %w", id, ErrBackpressure)
		}
		return Receipt{}, fmt.Errorf("submit %s: %w", id, err)
	}
	return Receipt{ID: id}, nil
}

// Assessment returns a stored assessment.
func (s *Service) Assessment(ctx context.Context, id string) (engine.Assessment, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return engine.Assessment{}, err
	}
	return store.Get(ctx, id)
}

// Top returns the highest-cupping assessments.
func (s *Service) Top(ctx context.Context, n int) ([]repository.Entry, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return nil, err
	}
	return store.Top(ctx, n)
}

// Distribution returns per-grade aggregates of stored assessments.
func (s *Service) Distribution(ctx context.Context) ([]repository.GradeStats, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return nil, err
	}
	return store.Distribution(ctx)
}

func (s *Service) storeOrErr() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GradeSample grades a sample from its bean measurements.
func (s *Service) GradeSample(_ context.Context, req engine.SampleRequest) (engine.SampleGrade, error) {
	defer timed("grade_sample", time.Now())
	res, err := s.engine.GradeSample(req)
	if err == nil {
		metrics.RecordGrade(string(res.PredictedQualityGrade), "sample")
	}
	return res, err
}

// PredictGrade predicts a lot grade from growing conditions.
func (s *Service) PredictGrade(_ context.Context, req engine.GradeRequest) (engine.GradePrediction, error) { //nolint:gocritic // hugeParam: request value
	defer timed("predict_grade", time.Now())
	res, err := s.engine.PredictGrade(req)
	if err == nil {
		metrics.RecordGrade(string(res.PredictedGrade), "conditions")
	}
	return res, err
}

// ForecastYield projects yield over several years.
func (s *Service) ForecastYield(_ context.Context, req engine.YieldRequest) (engine.YieldForecast, error) { //nolint:gocritic // hugeParam: request value
	defer timed("forecast_yield", time.Now())
	res, err := s.engine.ForecastYield(req)
	if err == nil {
		metrics.RecordForecast(res.Summary.AvgYieldKgHa)
	}
	return res, err
}

// QualityDistribution estimates the grade mix from quality factors.
func (s *Service) QualityDistribution(_ context.Context, req engine.QualityRequest) (engine.QualityDistribution, error) {
	defer timed("quality_distribution", time.Now())
	return s.engine.QualityDistribution(req)
}

// Recommend produces prioritized advice.
func (s *Service) Recommend(_ context.Context, req engine.RecommendationRequest) (advisory.Recommendations, error) { //nolint:gocritic // hugeParam: request value
	defer timed("recommend", time.Now())
	recs, err := s.engine.Recommend(req)
	if err == nil {
		metrics.RecordRecommendations(advisory.Critical.String(), len(recs.Critical))
		metrics.RecordRecommendations(advisory.Warning.String(), len(recs.Warnings))
		metrics.RecordRecommendations(advisory.Suggestion.String(), len(recs.Suggestions))
		metrics.RecordRecommendations(advisory.Maintenance.String(), len(recs.Maintenance))
	}
	return recs, err
}

func timed(op string, start time.Time) {
	metrics.RecordGradingLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// Stats returns a snapshot of the pipeline.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Started: s.started, WorkerCount: s.workerCount, QueueCapacity: s.queueSize}
	if s.queue != nil {
		st.QueueLength = s.queue.Len()
	}
	if s.deduper != nil {
		st.DedupeSize = s.deduper.Size()
	}
	if s.pool != nil {
		st.Processed = s.pool.Processed()
	}
	if s.store != nil {
		n, err := s.store.Count(ctx)
		if err != nil && s.logger != nil {
			s.logger.Warn(ctx, "count assessments", logger.Error(err))
		}
		st.Assessments = n
	}
	return st
}
