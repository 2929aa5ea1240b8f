package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
)

// RetryPolicy bounds how often a conflicting transaction is re-run.
type RetryPolicy struct {
	// MaxAttempts counts the first run. Values <= 1 disable retries.
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is used when no policy is configured.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     5,
	InitialInterval: 10 * time.Millisecond,
	MaxInterval:     250 * time.Millisecond,
}

// Retrying wraps a Store so that transactions failing with
// apperr.ErrConflict are re-run from scratch. Business-rule errors are
// returned immediately.
type Retrying struct {
	Store
	policy RetryPolicy
	log    *logrus.Logger
}

// NewRetrying constructs a Retrying store.
func NewRetrying(s Store, policy RetryPolicy, log *logrus.Logger) *Retrying {
	return &Retrying{Store: s, policy: policy, log: log}
}

// RunTransaction re-runs fn on conflict according to the policy. Each
// attempt re-reads everything, so decisions are never made on stale data.
func (r *Retrying) RunTransaction(ctx context.Context, fn TxFunc) error {
	if r.policy.MaxAttempts <= 1 {
		return r.Store.RunTransaction(ctx, fn)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := r.Store.RunTransaction(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if !apperr.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.policy.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			if r.log != nil {
				r.log.WithFields(logrus.Fields{
					"attempt": attempt,
					"next_in": next.String(),
				}).WithError(err).Debug("transaction conflict, retrying")
			}
		}),
	)
	if err == nil {
		return nil
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}
