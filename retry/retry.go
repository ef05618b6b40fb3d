// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package retry layers a backoff policy over Connector.Call. The connector
// itself never retries; callers that want transient network failures
// smoothed over wrap their calls here.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v3"

	"github.com/luxfi/filrpc"
)

// Caller is satisfied by *filrpc.Connector.
type Caller interface {
	Call(ctx context.Context, method string, result interface{}, params ...interface{}) error
}

const (
	defaultMaxAttempts     = 3
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
)

type config struct {
	maxAttempts     uint64
	initialInterval time.Duration
	maxInterval     time.Duration
	notify          backoff.Notify
}

// Option tunes the retry policy.
type Option func(*config)

// WithMaxAttempts caps the total number of attempts, the first included.
func WithMaxAttempts(n uint64) Option {
	return func(c *config) { c.maxAttempts = n }
}

// WithInitialInterval sets the wait before the second attempt.
func WithInitialInterval(d time.Duration) Option {
	return func(c *config) { c.initialInterval = d }
}

// WithMaxInterval caps the wait between attempts.
func WithMaxInterval(d time.Duration) Option {
	return func(c *config) { c.maxInterval = d }
}

// WithNotify is called with each retryable failure and the wait before the
// next attempt.
func WithNotify(f func(err error, next time.Duration)) Option {
	return func(c *config) { c.notify = f }
}

// Call runs c.Call until it succeeds, fails with a non-retryable error, the
// attempts run out or ctx ends.
func Call(ctx context.Context, c Caller, method string, result interface{}, params []interface{}, opts ...Option) error {
	cfg := config{
		maxAttempts:     defaultMaxAttempts,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxAttempts == 0 {
		cfg.maxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.initialInterval
	b.MaxInterval = cfg.maxInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, cfg.maxAttempts-1), ctx)

	return backoff.RetryNotify(func() error {
		err := c.Call(ctx, method, result, params...)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, cfg.notify)
}

// Retryable reports whether err is a transient network failure. Remote,
// protocol, cancellation and not-connected errors are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *filrpc.TransportError
	return errors.As(err, &te)
}
