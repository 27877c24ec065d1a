package worker

import (
	"time"

	"github.com/okian/robusta/pkg/logger"
)

// Option configures an InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger replaces the worker logger.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMaxRetries bounds how often a failed save is retried.
func WithMaxRetries(n uint64) Option {
	return func(w *InMemoryWorker) { w.maxRetries = n }
}

// WithRetryInterval sets the first backoff interval between save attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.retryInterval = d
		}
	}
}

// WithClock overrides the assessment timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *InMemoryWorker) {
		if now != nil {
			w.now = now
		}
	}
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkerOptions passes options to every worker the pool creates.
func WithWorkerOptions(opts ...Option) PoolOption {
	return func(p *Pool) { p.workerOpts = append(p.workerOpts, opts...) }
}

// WithPoolLogger replaces the pool logger.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
