package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for throttle tracking.
var (
	shopifyThrottleAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shopify_throttle_available",
		Help: "Cost points available in the Shopify GraphQL bucket after the last response",
	})

	shopifyThrottleWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_throttle_waits_total",
		Help: "Total number of requests delayed to let the cost bucket refill",
	})

	shopifyThrottleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopify_throttle_wait_seconds",
		Help:    "Time spent waiting for the cost bucket to refill",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20},
	})
)

// Tracker follows the cost bucket of one store and gates requests on it.
type Tracker struct {
	store  Store
	key    string
	logger zerolog.Logger
	now    func() time.Time
}

// NewTracker creates a tracker for the given shop.
func NewTracker(store Store, shop string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		key:    RedisKeyPrefix + shop,
		logger: logger,
		now:    time.Now,
	}
}

// Key returns the store key used for the shop.
func (t *Tracker) Key() string {
	return t.key
}

// GetState returns the last known bucket state.
// Returns ErrNoState if no response has been seen within StateTTL.
func (t *Tracker) GetState(ctx context.Context) (*ThrottleState, error) {
	state, err := t.store.Load(ctx, t.key)
	if err != nil {
		if errors.Is(err, ErrNoState) {
			return nil, err
		}
		return nil, fmt.Errorf("load throttle state: %w", err)
	}
	return state, nil
}

// Update records the throttle status reported by a response.
func (t *Tracker) Update(ctx context.Context, status ThrottleStatus) error {
	state := NewThrottleState(status, t.now())
	if err := t.store.Save(ctx, t.key, state, StateTTL); err != nil {
		return fmt.Errorf("save throttle state: %w", err)
	}

	shopifyThrottleAvailable.Set(status.CurrentlyAvailable)

	t.logger.Debug().
		Float64("currently_available", status.CurrentlyAvailable).
		Float64("maximum_available", status.MaximumAvailable).
		Float64("restore_rate", status.RestoreRate).
		Msg("Throttle state updated")

	return nil
}

// Wait blocks until the bucket is projected to hold cost points.
// A missing or unreadable state never blocks; the response will report the
// real bucket and correct the state.
func (t *Tracker) Wait(ctx context.Context, cost float64) error {
	state, err := t.GetState(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoState) {
			t.logger.Warn().Err(err).Msg("Throttle state unavailable, not waiting")
		}
		return nil
	}

	wait := state.WaitFor(cost, t.now())
	if wait <= 0 {
		return nil
	}

	t.logger.Warn().
		Float64("cost", cost).
		Float64("available", state.AvailableAt(t.now())).
		Dur("wait", wait).
		Msg("Cost bucket low, waiting for refill")

	shopifyThrottleWaitsTotal.Inc()
	shopifyThrottleWaitSeconds.Observe(wait.Seconds())

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("throttle wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
