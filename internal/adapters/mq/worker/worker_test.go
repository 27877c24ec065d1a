package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/robusta/internal/adapters/mq/queue"
	"github.com/okian/robusta/internal/adapters/mq/worker"
	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/internal/domain/model"
	"github.com/okian/robusta/pkg/logger"
)

type memSaver struct {
	mu       sync.Mutex
	saved    map[string]engine.Assessment
	failures int
	err      error
	calls    int
}

func newMemSaver() *memSaver {
	return &memSaver{saved: make(map[string]engine.Assessment)}
}

func (s *memSaver) Save(_ context.Context, a engine.Assessment) error { //nolint:gocritic // test double
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	if s.failures > 0 {
		s.failures--
		return errors.New("store unavailable")
	}
	s.saved[a.ID] = a
	return nil
}

func (s *memSaver) get(id string) (engine.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.saved[id]
	return a, ok
}

func (s *memSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func (s *memSaver) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// slowSaver takes delay per save and gives up when ctx ends first.
type slowSaver struct {
	*memSaver
	delay time.Duration
}

func (s *slowSaver) Save(ctx context.Context, a engine.Assessment) error { //nolint:gocritic // test double
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
	}
	return s.memSaver.Save(ctx, a)
}

func measurement() model.MeasurementSet {
	return model.MeasurementSet{
		ElevationM:              900,
		Processing:              model.Washed,
		Color:                   model.BlueGreen,
		MoisturePct:             13,
		BeanScreenMM:            7.5,
		PlantAgeMonths:          60,
		TemperatureC:            19.5,
		RainfallMM:              200,
		SoilPH:                  6.0,
		SoilMoisturePct:         35,
		FarmAreaHa:              2,
		Fertilization:           model.NonOrganic,
		FertilizationFrequency:  3,
		PestManagementFrequency: 3,
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	Convey("Given a worker over a real queue and engine", t, func() {
		So(logger.Init(logger.WithLevel("error")), ShouldBeNil)
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		saver := newMemSaver()
		w := worker.NewInMemoryWorker(q, engine.New(), saver,
			worker.WithName("test-worker"),
			worker.WithRetryInterval(time.Millisecond),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		Convey("When a valid job is submitted", func() {
			at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
			So(q.Submit(ctx, queue.Job{ID: "a-1", Measurement: measurement(), ReceivedAt: at}), ShouldBeNil)

			Convey("Then the assessment is stored with the job identity", func() {
				So(waitFor(func() bool { return saver.count() == 1 }), ShouldBeTrue)
				a, ok := saver.get("a-1")
				So(ok, ShouldBeTrue)
				So(a.Grade, ShouldEqual, model.GradeFine)
				So(a.CuppingScore, ShouldEqual, 94.6)
				So(a.CreatedAt.Equal(at), ShouldBeTrue)
				So(len(a.Forecast), ShouldEqual, 5)
			})
		})

		Convey("When the store fails transiently", func() {
			saver.failures = 2
			So(q.Submit(ctx, queue.Job{ID: "a-2", Measurement: measurement()}), ShouldBeNil)

			Convey("Then the save is retried until it succeeds", func() {
				So(waitFor(func() bool { return saver.count() == 1 }), ShouldBeTrue)
				So(saver.callCount(), ShouldEqual, 3)
			})
		})

		Convey("When the store rejects the record as invalid", func() {
			saver.err = model.Invalid("assessment_id", "assessment_id is required")
			So(q.Submit(ctx, queue.Job{ID: "a-3", Measurement: measurement()}), ShouldBeNil)

			Convey("Then it is not retried", func() {
				So(waitFor(func() bool { return saver.callCount() == 1 }), ShouldBeTrue)
				time.Sleep(20 * time.Millisecond)
				So(saver.callCount(), ShouldEqual, 1)
			})
		})

		Convey("When the measurement is invalid", func() {
			bad := measurement()
			bad.MoisturePct = 140
			So(q.Submit(ctx, queue.Job{ID: "bad", Measurement: bad}), ShouldBeNil)
			So(q.Submit(ctx, queue.Job{ID: "good", Measurement: measurement()}), ShouldBeNil)

			Convey("Then it is skipped and later jobs still run", func() {
				So(waitFor(func() bool { return saver.count() == 1 }), ShouldBeTrue)
				_, ok := saver.get("bad")
				So(ok, ShouldBeFalse)
				So(saver.callCount(), ShouldEqual, 1)
			})
		})

		Convey("When the worker is stopped", func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
			defer stopCancel()
			So(w.Stop(stopCtx), ShouldBeNil)
			So(w.Stop(stopCtx), ShouldBeNil)

			Convey("Then stopping again with an expired context still succeeds", func() {
				expired, expire := context.WithCancel(context.Background())
				expire()
				for range 100 {
					So(w.Stop(expired), ShouldBeNil)
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of four workers", t, func() {
		So(logger.Init(logger.WithLevel("error")), ShouldBeNil)
		q := queue.NewInMemoryQueue(queue.WithCapacity(256))
		saver := newMemSaver()
		pool := worker.NewPool(4, q, engine.New(), saver)
		So(pool.Size(), ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		Convey("When many jobs arrive from concurrent producers", func() {
			const producers, perProducer = 5, 20
			var wg sync.WaitGroup
			for p := range producers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range perProducer {
						_ = q.Submit(ctx, queue.Job{ID: fmt.Sprintf("p%d-%d", p, i), Measurement: measurement()})
					}
				}()
			}
			wg.Wait()

			Convey("Then shutdown drains every job", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				So(pool.Shutdown(shutdownCtx), ShouldBeNil)
				So(saver.count(), ShouldEqual, producers*perProducer)
				So(pool.Processed(), ShouldEqual, int64(producers*perProducer))
				So(q.IsClosed(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a pool whose start context is cancelled with a backlog queued", t, func() {
		So(logger.Init(logger.WithLevel("error")), ShouldBeNil)
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		saver := &slowSaver{memSaver: newMemSaver(), delay: 5 * time.Millisecond}
		pool := worker.NewPool(1, q, engine.New(), saver)

		ctx, cancel := context.WithCancel(context.Background())
		pool.Start(ctx)
		const jobs = 20
		for i := range jobs {
			So(q.Submit(context.Background(), queue.Job{ID: fmt.Sprintf("j-%d", i), Measurement: measurement()}), ShouldBeNil)
		}
		cancel()

		Convey("When the pool is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			err := pool.Shutdown(shutdownCtx)

			Convey("Then every accepted job is still stored", func() {
				So(err, ShouldBeNil)
				So(saver.count(), ShouldEqual, jobs)
				So(pool.Processed(), ShouldEqual, int64(jobs))
			})
		})
	})

	Convey("Given a pool with a save that outlives the drain budget", t, func() {
		So(logger.Init(logger.WithLevel("error")), ShouldBeNil)
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		saver := &slowSaver{memSaver: newMemSaver(), delay: time.Minute}
		pool := worker.NewPool(1, q, engine.New(), saver)
		pool.Start(context.Background())
		So(q.Submit(context.Background(), queue.Job{ID: "stuck", Measurement: measurement()}), ShouldBeNil)
		So(waitFor(func() bool { return q.Len() == 0 }), ShouldBeTrue)

		Convey("When shutdown runs out of time", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer shutdownCancel()
			start := time.Now()
			err := pool.Shutdown(shutdownCtx)

			Convey("Then the in-flight save is abandoned and the timeout reported", func() {
				So(errors.Is(err, worker.ErrShutdownTimeout), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 2*time.Second)
				So(saver.count(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a pool created with a non-positive count", t, func() {
		So(logger.Init(logger.WithLevel("error")), ShouldBeNil)
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), engine.New(), newMemSaver())
		So(pool.Size(), ShouldBeGreaterThan, 0)
	})
}
