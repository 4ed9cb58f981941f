package pipeline

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultProgressTick = 100 * time.Millisecond
	defaultProgressStep = 2
	defaultProgressHold = 500 * time.Millisecond
)

// Reporter animates an observable progress percentage from a start bound
// toward an end bound over wall-clock time. It only visualizes elapsed-time
// expectation; the caller runs the matching work around each animation
// window.
type Reporter struct {
	Tick time.Duration
	Step int
	Hold time.Duration

	// Publish receives each clamped progress value with the step label.
	Publish func(percent int, label string)
}

// NewReporter builds a reporter with production timings.
func NewReporter(publish func(percent int, label string)) *Reporter {
	return &Reporter{
		Tick:    defaultProgressTick,
		Step:    defaultProgressStep,
		Hold:    defaultProgressHold,
		Publish: publish,
	}
}

// Animate advances the percentage in fixed increments on a fixed tick from
// start until it reaches min(end, 100), then holds briefly so a consumer can
// visually settle. Animate returns early when ctx is cancelled.
func (r *Reporter) Animate(ctx context.Context, start, end int, label string) error {
	if start < 0 || end > 100 || start > end {
		return fmt.Errorf("invalid progress window: %d -> %d", start, end)
	}

	tick := r.Tick
	if tick <= 0 {
		tick = defaultProgressTick
	}
	step := r.Step
	if step <= 0 {
		step = defaultProgressStep
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	current := start
	for current < end {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		current += step
		clamped := current
		if clamped > end {
			clamped = end
		}
		if clamped > 100 {
			clamped = 100
		}
		if r.Publish != nil {
			r.Publish(clamped, label)
		}
	}
	if current == start && r.Publish != nil {
		// Zero-width window still surfaces the label.
		r.Publish(end, label)
	}

	if r.Hold > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Hold):
		}
	}
	return nil
}
