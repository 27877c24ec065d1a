package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func job(id string) Job {
	return Job{ID: id, ReceivedAt: time.Unix(0, 0)}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity 2", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		So(q.Capacity(), ShouldEqual, 2)
		So(q.Len(), ShouldEqual, 0)

		Convey("When two jobs are submitted", func() {
			So(q.Submit(ctx, job("a")), ShouldBeNil)
			So(q.Submit(ctx, job("b")), ShouldBeNil)

			Convey("Then a third is rejected as full", func() {
				So(errors.Is(q.Submit(ctx, job("c")), ErrQueueFull), ShouldBeTrue)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("Then they come out in order", func() {
				So((<-q.Jobs()).ID, ShouldEqual, "a")
				q.Dequeued()
				So((<-q.Jobs()).ID, ShouldEqual, "b")
				q.Dequeued()
				So(q.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Submit(ctx, job("a")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then submissions fail and the backlog still drains", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Submit(ctx, job("b")), ErrQueueClosed), ShouldBeTrue)

				var got []string
				for j := range q.Jobs() {
					got = append(got, j.ID)
				}
				So(got, ShouldResemble, []string{"a"})
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(errors.Is(q.Submit(cctx, job("a")), context.Canceled), ShouldBeTrue)
			So(q.Len(), ShouldEqual, 0)
		})
	})
}

func TestInMemoryQueueConcurrency(t *testing.T) {
	Convey("Given concurrent producers and one consumer", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(64))
		const producers, perProducer = 8, 50

		var wg sync.WaitGroup
		for p := range producers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range perProducer {
					for q.Submit(ctx, job(fmt.Sprintf("%d-%d", p, i))) != nil {
						time.Sleep(time.Millisecond)
					}
				}
			}()
		}

		seen := make(map[string]bool)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := range q.Jobs() {
				q.Dequeued()
				seen[j.ID] = true
			}
		}()

		wg.Wait()
		So(q.Close(), ShouldBeNil)
		<-done

		Convey("Then every job is delivered once", func() {
			So(len(seen), ShouldEqual, producers*perProducer)
		})
	})
}
