// Package pacer spaces out frame delivery to a fixed rate.
package pacer

import (
	"context"
	"time"
)

// Pacer blocks callers so that successive Wait calls return at most once per
// interval. A Pacer that falls more than one interval behind resynchronizes
// instead of bursting to catch up.
type Pacer struct {
	interval time.Duration
	next     time.Time
	now      func() time.Time
}

// New creates a Pacer for fps frames per second. fps <= 0 disables pacing.
func New(fps float64) *Pacer {
	p := &Pacer{now: time.Now}
	if fps > 0 {
		p.interval = time.Duration(float64(time.Second) / fps)
	}
	return p
}

// Interval returns the frame interval (0 when pacing is disabled).
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the next frame slot or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.interval == 0 {
		return nil
	}

	now := p.now()
	if p.next.IsZero() || now.Sub(p.next) > p.interval {
		p.next = now
	}
	wait := p.next.Sub(now)
	p.next = p.next.Add(p.interval)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
