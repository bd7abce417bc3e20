// Package resilience retries agent invocations that failed with a
// recoverable model error.
//
// Recoverable errors are the ones a replay of the same request can fix: an
// empty response, a response that did not match the agent's expected shape,
// and the provider's "tool choice is none" rejection. Everything else is
// returned on the first failure.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fyrsmithlabs/agentmesh/internal/config"
)

const (
	DefaultRetryCount = 2
	DefaultDelay      = 5 * time.Second
)

// RetryEvent describes one scheduled retry.
type RetryEvent struct {
	Agent   string
	Attempt int
	Err     error
	Delay   time.Duration
}

// Observer is notified before every retry.
type Observer func(ctx context.Context, ev RetryEvent)

// Classifier reports whether err may be retried.
type Classifier func(err error) bool

// Policy is a fixed-delay retry policy.
type Policy struct {
	RetryCount  int
	Delay       time.Duration
	Recoverable Classifier
	Observers   []Observer
}

// New returns a policy with the given bounds. recoverable may be nil, in
// which case nothing is retried. A negative retryCount means no retries.
func New(retryCount int, delay time.Duration, recoverable Classifier, observers ...Observer) *Policy {
	if retryCount < 0 {
		retryCount = 0
	}
	return &Policy{
		RetryCount:  retryCount,
		Delay:       delay,
		Recoverable: recoverable,
		Observers:   observers,
	}
}

// FromConfig builds a policy from the resilience section.
func FromConfig(cfg config.ResilienceConfig, recoverable Classifier, observers ...Observer) *Policy {
	return New(cfg.Retries(), cfg.Delay.Duration(), recoverable, observers...)
}

// Execute runs op until it succeeds, fails with a non-recoverable error, or
// RetryCount retries have been spent. The last error is returned unchanged.
func Execute[T any](ctx context.Context, p *Policy, agent string, op func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		return op(ctx)
	}

	// backoff treats zero max tries as unlimited.
	tries := uint(1)
	if p.RetryCount > 0 {
		tries += uint(p.RetryCount)
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && (p.Recoverable == nil || !p.Recoverable(err)) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	v, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(tries),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, d time.Duration) {
			ev := RetryEvent{Agent: agent, Attempt: attempt, Err: err, Delay: d}
			for _, obs := range p.Observers {
				obs(ctx, ev)
			}
		}),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	return v, err
}

// AnyOf combines classifiers.
func AnyOf(cs ...Classifier) Classifier {
	return func(err error) bool {
		for _, c := range cs {
			if c(err) {
				return true
			}
		}
		return false
	}
}

// Is returns a classifier matching errors.Is against targets.
func Is(targets ...error) Classifier {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

// As returns a classifier matching errors.As against the type of T.
func As[T error]() Classifier {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}
