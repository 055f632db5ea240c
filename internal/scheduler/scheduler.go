// Package scheduler paces a CPU's cycle donations to wall-clock time: one
// frame's worth of cycles, once per frame interval, so a headless run keeps
// the same 1.789 MHz/60 fps cadence a UI-driven run would impose through
// its own event loop.
package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// ClockHz is the notional 6502 clock rate this core is budgeted against.
	ClockHz = 1_789_000
	// FramesPerSecond is the notional frame rate cycle budgets are sliced by.
	FramesPerSecond = 60
	// CyclesPerFrame is ClockHz/FramesPerSecond, rounded down: 29,816.
	CyclesPerFrame = ClockHz / FramesPerSecond
)

// DonateFunc is the cycle-accepting side of a CPU: donate cyclesPerFrame
// cycles, run whole instructions until the budget is spent or the machine
// halts, and report what happened. It is a plain function type rather than
// an interface so cmd only has to adapt (*cpu.CPU).Run's RunState return
// into a bool once, at the call site, instead of the CPU type needing to
// know about this package.
type DonateFunc func(budget int) (spent int, halted bool, status string)

// Runner drives DonateFunc at a fixed frame cadence until ctx is cancelled
// or the donor halts. It corrects for drift the way limiter.FpsLimiter
// does: the sleep before the next frame is shortened by however long the
// previous frame actually took, so a slow frame doesn't compound into a
// growing backlog.
type Runner struct {
	donate         DonateFunc
	cyclesPerFrame int
	frameInterval  time.Duration
	onFrame        func(spent int, status string)
}

// NewRunner builds a Runner donating cyclesPerFrame cycles every
// frameInterval. onFrame, if non-nil, is called after every donation with
// the cycles actually spent and the resulting status string — the hook the
// debug UI uses to refresh its overlay without the scheduler importing
// anything about how it's drawn.
func NewRunner(donate DonateFunc, cyclesPerFrame int, frameInterval time.Duration, onFrame func(spent int, status string)) *Runner {
	return &Runner{
		donate:         donate,
		cyclesPerFrame: cyclesPerFrame,
		frameInterval:  frameInterval,
		onFrame:        onFrame,
	}
}

// Run donates cycles once per frame interval until ctx is cancelled or the
// donor halts, then returns. It runs on the calling goroutine; callers that
// want it alongside other cancellable work (a UI event loop, a signal
// handler) should drive it through an errgroup.Group and cancel ctx on
// shutdown, the way RunWithShutdown below does for the common case of
// exactly those two goroutines.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		spent, halted, status := r.donate(r.cyclesPerFrame)
		if r.onFrame != nil {
			r.onFrame(spent, status)
		}
		if halted {
			return nil
		}

		sleep := r.frameInterval - time.Since(start)
		if sleep > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
		}
	}
}

// RunWithShutdown runs r on its own goroutine and blocks until either it
// finishes (donor halted, or ctx was cancelled by the caller) or shutdown
// fires, in which case ctx is cancelled and RunWithShutdown waits for r to
// notice and return. This is the errgroup-coordinated pairing a UI's
// "window closed" signal and the frame-donation loop need: both exit
// together instead of the UI goroutine leaking a scheduler behind it.
func RunWithShutdown(ctx context.Context, r *Runner, shutdown <-chan struct{}) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Cancel once Run returns on its own (donor halted) so the
		// shutdown watcher below stops waiting too.
		defer cancel()
		return r.Run(ctx)
	})
	g.Go(func() error {
		select {
		case <-shutdown:
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
