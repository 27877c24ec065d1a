package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"

	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/internal/domain/model"
	"github.com/okian/robusta/pkg/logger"
	"github.com/okian/robusta/pkg/metrics"
)

// Guarded puts a circuit breaker in front of another store. While the
// breaker is open calls fail fast with ErrUnavailable.
type Guarded struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[any]
}

// NewGuarded wraps inner.
func NewGuarded(inner Store, opts ...GuardOption) *Guarded {
	cfg := defaultGuardSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := logger.Get().Named("store-breaker")

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.name,
		MaxRequests: cfg.maxRequests,
		Timeout:     cfg.timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.minRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= cfg.failRatio
		},
		// Caller mistakes say nothing about store health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrInvalidLimit) || model.IsValidation(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			log.Warn(context.Background(), "breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	metrics.UpdateBreakerState(cfg.name, int(gobreaker.StateClosed))
	return &Guarded{inner: inner, cb: cb}
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State { return g.cb.State() }

func (g *Guarded) Save(ctx context.Context, a engine.Assessment) error { //nolint:gocritic // hugeParam: stored by value
	_, err := g.cb.Execute(func() (any, error) {
		return nil, g.inner.Save(ctx, a)
	})
	return translate(err)
}

func (g *Guarded) Get(ctx context.Context, id string) (engine.Assessment, error) {
	v, err := g.cb.Execute(func() (any, error) {
		return g.inner.Get(ctx, id)
	})
	if err != nil {
		return engine.Assessment{}, translate(err)
	}
	return v.(engine.Assessment), nil
}

func (g *Guarded) Top(ctx context.Context, n int) ([]Entry, error) {
	v, err := g.cb.Execute(func() (any, error) {
		return g.inner.Top(ctx, n)
	})
	if err != nil {
		return nil, translate(err)
	}
	return v.([]Entry), nil
}

func (g *Guarded) Distribution(ctx context.Context) ([]GradeStats, error) {
	v, err := g.cb.Execute(func() (any, error) {
		return g.inner.Distribution(ctx)
	})
	if err != nil {
		return nil, translate(err)
	}
	return v.([]GradeStats), nil
}

func (g *Guarded) Count(ctx context.Context) (int, error) {
	v, err := g.cb.Execute(func() (any, error) {
		return g.inner.Count(ctx)
	})
	if err != nil {
		return 0, translate(err)
	}
	return v.(int), nil
}

func translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
