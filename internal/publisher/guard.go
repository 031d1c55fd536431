package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	"golang.org/x/time/rate"
)

// ErrTimeout is returned when a guarded step does not finish in time.
var ErrTimeout = errors.New("publisher timed out")

type guard struct {
	plugin.Publisher
}

func (g guard) Priority() int { return plugin.PriorityOf(g.Publisher) }

// Unwrap returns the guarded publisher.
func (g guard) Unwrap() plugin.Publisher { return g.Publisher }

type timeoutGuard struct {
	guard
	timeout time.Duration
}

// WithTimeout bounds IsAvailable and Publish of p to d. A step that overruns
// returns ErrTimeout; its goroutine is abandoned and its result discarded.
// A non-positive d returns p unchanged.
func WithTimeout(p plugin.Publisher, d time.Duration) plugin.Publisher {
	if d <= 0 {
		return p
	}
	return &timeoutGuard{guard: guard{p}, timeout: d}
}

func (g *timeoutGuard) IsAvailable(ctx context.Context, m model.Model, snap *snapshot.Snapshot) (bool, error) {
	var ok bool
	err := g.run(ctx, "availability check", func(ctx context.Context) error {
		var err error
		ok, err = g.Publisher.IsAvailable(ctx, m, snap)
		return err
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (g *timeoutGuard) Publish(ctx context.Context, c *content.Map, snap *snapshot.Snapshot) error {
	return g.run(ctx, "publish", func(ctx context.Context) error {
		return g.Publisher.Publish(ctx, c, snap)
	})
}

func (g *timeoutGuard) run(ctx context.Context, step string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%s: %s panicked: %v", g.Name(), step, r)
			}
		}()
		done <- fn(ctx)
	}()

	var err error
	select {
	case err = <-done:
		if err == nil || ctx.Err() == nil {
			return err
		}
	case <-ctx.Done():
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %s after %s: %w", g.Name(), step, g.timeout, ErrTimeout)
	}
	return fmt.Errorf("%s: %s: %w", g.Name(), step, ctx.Err())
}

type rateGuard struct {
	guard
	limiter *rate.Limiter
}

// WithRateLimit makes Publish of p wait for a token from limiter. Waiting is
// bounded by the caller's context. A nil limiter returns p unchanged.
func WithRateLimit(p plugin.Publisher, limiter *rate.Limiter) plugin.Publisher {
	if limiter == nil {
		return p
	}
	return &rateGuard{guard: guard{p}, limiter: limiter}
}

func (g *rateGuard) Publish(ctx context.Context, c *content.Map, snap *snapshot.Snapshot) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", g.Name(), err)
	}
	return g.Publisher.Publish(ctx, c, snap)
}
