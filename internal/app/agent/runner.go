package agent

import (
	"context"
	"time"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

// Run drives the agent from a stream of world snapshots until ctx ends or
// the stream closes. Timed waits are resumed from a timer so motion steps do
// not have to wait for the next frame.
func (a *Agent) Run(ctx context.Context, frames <-chan loot.Snapshot) error {
	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	defer timer.Stop()

	arm := func() {
		stopTimer(timer)
		if at := a.ResumeAt(); !at.IsZero() {
			d := at.Sub(a.now())
			if d < 0 {
				d = 0
			}
			timer.Reset(d)
		}
	}

	for {
		select {
		case <-ctx.Done():
			a.Stop()
			return ctx.Err()
		case s, ok := <-frames:
			if !ok {
				a.Stop()
				return nil
			}
			a.Frame(a.now(), s)
			arm()
		case <-timer.C:
			a.Resume(a.now())
			arm()
		}
	}
}

// Stop abandons whatever attempt is in flight.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.abandon(a.now())
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

// PollFrames turns a snapshot reader into a frame stream. Read errors skip
// the tick and are logged.
func (a *Agent) PollFrames(ctx context.Context, reader ports.WorldReader, interval time.Duration) <-chan loot.Snapshot {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	out := make(chan loot.Snapshot)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			s, err := reader.Snapshot(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				a.logger.Warn("world snapshot unavailable", "err", err)
				continue
			}
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
