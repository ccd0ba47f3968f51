// Package retry wraps remote calls with bounded exponential-backoff
// retries. The policy is an explicit value passed by the caller; there is
// no process-wide mutable configuration.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Policy controls how a remote call is retried after a transient failure.
// The zero value retries nothing; use DefaultPolicy for sensible defaults
// and set Retryable to classify failures.
type Policy struct {
	// MaxRetries is the number of re-invocations after the first attempt.
	MaxRetries int
	// BaseDelay is the sleep before the first retry (default 500ms).
	BaseDelay time.Duration
	// Multiplier grows the delay per attempt (default 2).
	Multiplier float64
	// MaxDelay caps a single sleep (default 30s).
	MaxDelay time.Duration
	// Jitter randomizes each delay between half and the full computed value.
	Jitter bool
	// Retryable classifies a failure as transient. A nil classifier treats
	// every failure as fatal, so the call runs exactly once.
	Retryable func(error) bool
}

// DefaultPolicy returns the policy used when a caller supplies none:
// three retries with jittered doubling delays starting at 500ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		Multiplier: 2,
		MaxDelay:   30 * time.Second,
		Jitter:     true,
	}
}

func (p Policy) withDefaults() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	return p
}

// delay computes the sleep before retry number attempt (0-based).
func (p Policy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	if p.Jitter {
		d = d/2 + rand.N(d/2+1)
	}
	return d
}

// Do invokes fn, retrying transient failures per the policy. Blocking is
// synchronous on the calling goroutine. The last underlying error is
// returned unchanged; Do never wraps or replaces it, it only decides
// whether to call fn again. Context cancellation during a backoff sleep
// stops retrying and surfaces the last failure.
func Do(ctx context.Context, p Policy, fn func() error) error {
	p = p.withDefaults()
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt >= p.MaxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(p.delay(attempt)):
		}
	}
}

// DoValue is Do for calls that produce a value. On failure the zero value
// is returned alongside the last error.
func DoValue[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var v T
	err := Do(ctx, p, func() error {
		var e error
		v, e = fn()
		return e
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
