// Package queue carries accepted assessment submissions from the API to the
// worker pool.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/robusta/internal/domain/model"
	"github.com/okian/robusta/pkg/metrics"
)

const defaultCapacity = 10000

// Job is one accepted submission waiting to be assessed.
type Job struct {
	ID          string
	Measurement model.MeasurementSet
	ReceivedAt  time.Time
}

// Queue offers non-blocking submission and channel-based consumption.
type Queue interface {
	// Submit adds a job, failing with ErrQueueFull or ErrQueueClosed
	// instead of blocking.
	Submit(ctx context.Context, j Job) error

	// Jobs returns the consumer channel. It is closed after Close once the
	// backlog has drained.
	Jobs() <-chan Job

	// Dequeued is called by consumers after taking a job.
	Dequeued()

	Len() int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue builds a queue with the given options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0, q.capacity)
	return q
}

// Submit enqueues j without blocking.
func (q *InMemoryQueue) Submit(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs), q.capacity)
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Jobs exposes the buffered channel directly; every worker ranges over it.
func (q *InMemoryQueue) Jobs() <-chan Job {
	return q.jobs
}

// Dequeued records that a consumer took a job off the channel.
func (q *InMemoryQueue) Dequeued() {
	metrics.RecordQueueDequeue()
	metrics.UpdateQueueSize(len(q.jobs), q.capacity)
}

// Len returns the number of pending jobs.
func (q *InMemoryQueue) Len() int { return len(q.jobs) }

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting jobs. Pending jobs stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
