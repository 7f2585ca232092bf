package report

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Policy is the rate-limit contract for section generation
type Policy struct {
	// MaxConcurrent bounds the number of section tasks in flight
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`
	// Delay is waited by every task before its single inference call
	Delay time.Duration `json:"delay" yaml:"delay"`
	// MinSpacing is the minimum interval between any two call starts; zero disables it
	MinSpacing time.Duration `json:"min_spacing" yaml:"min_spacing"`
}

// DefaultPolicy returns two workers and a 400ms pre-call delay
func DefaultPolicy() Policy {
	return Policy{
		MaxConcurrent: 2,
		Delay:         400 * time.Millisecond,
	}
}

func (p Policy) workers() int {
	if p.MaxConcurrent < 1 {
		return 1
	}
	return min(p.MaxConcurrent, len(Kinds))
}

// throttle is the per-Build instance of a Policy
type throttle struct {
	delay   time.Duration
	limiter *rate.Limiter
}

func (p Policy) newThrottle() *throttle {
	t := &throttle{delay: p.Delay}
	if p.MinSpacing > 0 {
		t.limiter = rate.NewLimiter(rate.Every(p.MinSpacing), 1)
	}
	return t
}

// wait blocks for the fixed delay and then for a spacing slot
func (t *throttle) wait(ctx context.Context) error {
	if t.delay > 0 {
		timer := time.NewTimer(t.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	if t.limiter != nil {
		return t.limiter.Wait(ctx)
	}
	return ctx.Err()
}
