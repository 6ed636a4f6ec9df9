// Package retryx wraps remote calls with a bounded exponential-backoff retry
// and a per-attempt timeout. Every error that survives the retries is
// reported as common.ErrRemoteCall.
package retryx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/metrics"
	"github.com/sethvargo/go-retry"
)

// Policy bounds a single remote call.
type Policy struct {
	// Attempts is the total number of tries, including the first one.
	Attempts uint64
	// BaseDelay is the first backoff delay; it doubles on each retry.
	BaseDelay time.Duration
	// CallTimeout bounds each attempt. Zero means no per-attempt timeout.
	CallTimeout time.Duration
}

// DefaultPolicy is used when a component is built without an explicit policy.
var DefaultPolicy = Policy{Attempts: 3, BaseDelay: 200 * time.Millisecond, CallTimeout: 10 * time.Second}

// permanentError marks an error that must not be retried.
type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Do returns it after the first attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func (p Policy) backoff() retry.Backoff {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultPolicy.BaseDelay
	}
	return retry.WithMaxRetries(attempts-1, retry.NewExponential(base))
}

// Do runs fn until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is done. op names the call in errors and metrics.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		callCtx, cancel := attemptContext(ctx, p.CallTimeout)
		defer cancel()

		err := fn(callCtx)
		if err == nil {
			return nil
		}

		var perm permanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			return err
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	var perm permanentError
	if errors.As(err, &perm) {
		return perm.err
	}

	metrics.RemoteCallFailures.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %s: %w", common.ErrRemoteCall, op, err)
}

func attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
