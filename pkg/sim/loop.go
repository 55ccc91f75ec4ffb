package sim

import (
	"context"
	"errors"
	"time"

	"github.com/vanderheijden86/sensemap/pkg/debug"

	"golang.org/x/sync/errgroup"
)

// Loop drives a Controller headlessly with two independent tickers: one for
// frames and one for the auto-dismiss check. Neither blocks the other.
type Loop struct {
	Controller      *Controller
	FrameInterval   time.Duration
	DismissInterval time.Duration
}

// NewLoop creates a loop using the controller's configured intervals.
func NewLoop(c *Controller) *Loop {
	o := c.Options()
	return &Loop{
		Controller:      c,
		FrameInterval:   o.FrameInterval,
		DismissInterval: o.DismissInterval,
	}
}

// Run ticks until ctx is cancelled. Cancellation is not an error.
func (l *Loop) Run(ctx context.Context) error {
	if l.FrameInterval <= 0 || l.DismissInterval <= 0 {
		return errors.New("loop intervals must be positive")
	}
	debug.Log("sim: loop start frame=%v dismiss=%v", l.FrameInterval, l.DismissInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return every(ctx, l.FrameInterval, func() { l.Controller.Tick() })
	})
	g.Go(func() error {
		return every(ctx, l.DismissInterval, func() { l.Controller.CheckDismiss() })
	})

	err := g.Wait()
	debug.Log("sim: loop stop")
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func every(ctx context.Context, d time.Duration, fn func()) error {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			fn()
		}
	}
}
