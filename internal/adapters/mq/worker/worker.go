// Package worker turns queued submissions into stored assessments.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okian/robusta/internal/adapters/mq/queue"
	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/internal/domain/model"
	"github.com/okian/robusta/pkg/logger"
	"github.com/okian/robusta/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	defaultMaxRetries       = 3
	defaultRetryInterval    = 50 * time.Millisecond
	metricsUpdateInterval   = 5 * time.Second
)

// ErrShutdownTimeout is returned when workers do not finish in time.
var ErrShutdownTimeout = errors.New("worker shutdown timed out")

// Assessor runs the full grading pipeline for one measurement set.
type Assessor interface {
	Assess(id string, at time.Time, m model.MeasurementSet) (engine.Assessment, error)
}

// Saver persists finished assessments.
type Saver interface {
	Save(ctx context.Context, a engine.Assessment) error
}

// Source is where workers take jobs from.
type Source interface {
	Jobs() <-chan queue.Job
	Dequeued()
}

// InMemoryWorker consumes jobs until the source closes or it is stopped.
type InMemoryWorker struct {
	source   Source
	assessor Assessor
	saver    Saver
	name     string

	maxRetries    uint64
	retryInterval time.Duration
	now           func() time.Time
	processed     *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker builds a worker.
func NewInMemoryWorker(source Source, assessor Assessor, saver Saver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:        source,
		assessor:      assessor,
		saver:         saver,
		name:          "worker",
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
		now:           time.Now,
		processed:     &atomic.Int64{},
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes jobs until the source channel closes, ctx is cancelled or
// Stop is called. Jobs are saved under ctx, so a caller that wants the
// backlog drained must not cancel it before the source closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.source.Jobs()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.source.Dequeued()
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "assessment failed",
					logger.String("assessment_id", j.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Stop aborts the loop without draining and waits for it to exit.
func (w *InMemoryWorker) Stop(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	return w.wait(ctx)
}

func (w *InMemoryWorker) wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	default:
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	at := j.ReceivedAt
	if at.IsZero() {
		at = w.now()
	}
	a, err := w.assessor.Assess(j.ID, at, j.Measurement)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordAssessmentRejected()
		metrics.RecordErrorByComponent("worker", "assess_error")
		return fmt.Errorf("assess %s: %w", j.ID, err)
	}
	metrics.RecordGradingLatency("assess", float64(time.Since(start).Milliseconds()))
	metrics.RecordGrade(string(a.Grade), "assessment")

	if err := w.save(ctx, a); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "save_error")
		return fmt.Errorf("save %s: %w", j.ID, err)
	}

	metrics.RecordAssessmentProcessed()
	metrics.RecordForecast(a.Summary.AvgYieldKgHa)
	w.processed.Add(1)
	w.logger.Debug(ctx, "assessment stored",
		logger.String("assessment_id", a.ID),
		logger.String("grade", string(a.Grade)),
		logger.Float64("cupping_score", a.CuppingScore),
	)
	return nil
}

// save retries transient store failures with exponential backoff.
func (w *InMemoryWorker) save(ctx context.Context, a engine.Assessment) error { //nolint:gocritic // hugeParam: assessments travel by value
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = w.retryInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, w.maxRetries), ctx)

	op := func() error {
		err := w.saver.Save(ctx, a)
		if model.IsValidation(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		metrics.RecordWorkerRetry()
		w.logger.Warn(ctx, "save failed, retrying",
			logger.String("assessment_id", a.ID),
			logger.Duration("next", next),
			logger.Error(err),
		)
	}
	return backoff.RetryNotify(op, policy, notify)
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers    []*InMemoryWorker
	queue      queue.Queue
	workerOpts []Option

	processed         atomic.Int64
	lastProcessed     int64
	lastProcessedTime time.Time

	cancel   context.CancelFunc
	shutdown chan struct{}
	logger   logger.Logger
}

// NewPool creates workerCount workers; a count below 1 scales with the CPU
// count.
func NewPool(workerCount int, q queue.Queue, assessor Assessor, saver Saver, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		lastProcessedTime: time.Now(),
		shutdown:          make(chan struct{}),
		logger:            logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, p.workerOpts...)
		w := NewInMemoryWorker(q, assessor, saver, wopts...)
		w.processed = &p.processed
		p.workers[i] = w
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many assessments the pool has stored.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start launches every worker and the throughput reporter. The workers keep
// the values of ctx but not its cancellation: they run until Shutdown.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.reportThroughput(ctx)
}

func (p *Pool) reportThroughput(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case now := <-ticker.C:
			total := p.processed.Load()
			if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
				metrics.UpdateWorkerMessagesPerSecond(float64(total-p.lastProcessed) / elapsed)
			}
			p.lastProcessed = total
			p.lastProcessedTime = now
		}
	}
}

// Shutdown closes the queue and lets workers drain the backlog. Workers
// still busy when ctx expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	close(p.shutdown)

	var lagging []int
	for i, w := range p.workers {
		if err := w.wait(ctx); err != nil {
			lagging = append(lagging, i)
		}
	}
	// Saves still in flight past the drain budget are abandoned here.
	if p.cancel != nil {
		p.cancel()
	}
	for _, i := range lagging {
		p.logger.Warn(ctx, "worker did not drain", logger.Int("worker_id", i))
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = p.workers[i].Stop(stopCtx)
		cancel()
	}
	timedOut := len(lagging) > 0
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return ErrShutdownTimeout
	}
	return nil
}
