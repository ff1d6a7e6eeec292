// Package retry wraps outbound calls to the external program registries with
// exponential backoff and a retryable-error classifier.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const maxJitter = time.Second

var defaultRetryableStatuses = []int{408, 429, 500, 502, 503, 504}

// StatusError carries the HTTP status of a failed registry call so
// classification does not depend on parsing error messages.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("http status %d: %s", e.Code, e.URL)
	}
	return fmt.Sprintf("http status %d", e.Code)
}

type Config struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RetryableStatuses []int

	// OnRetry observes each retry before the sleep. attempt starts at 1.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		RetryableStatuses: defaultRetryableStatuses,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if len(c.RetryableStatuses) == 0 {
		c.RetryableStatuses = defaultRetryableStatuses
	}
	return c
}

// Delay reports the pre-jitter backoff before retry attempt (0-based):
// min(BaseDelay * 2^attempt, MaxDelay). Non-decreasing in attempt.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(c.BaseDelay) * math.Pow(2, float64(attempt))
	if d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// Retryable reports whether err looks transient: network failures, timeouts,
// or one of the configured HTTP status codes.
func (c Config) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		for _, code := range c.RetryableStatuses {
			if se.Code == code {
				return true
			}
		}
	}
	return false
}

// Do runs op, retrying transient failures up to MaxRetries times.
// Non-retryable errors abort immediately without consuming a retry; after
// exhausting the retries the last error is returned.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	attempt := 0
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			if err := op(ctx); err != nil {
				if !cfg.Retryable(err) {
					return struct{}{}, backoff.Permanent(err)
				}
				return struct{}{}, err
			}
			return struct{}{}, nil
		},
		backoff.WithBackOff(&strategy{cfg: cfg}),
		backoff.WithMaxTries(uint(cfg.MaxRetries)+1),
		backoff.WithNotify(func(err error, delay time.Duration) {
			attempt++
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, delay, err)
			}
		}),
	)
	if err != nil {
		var pe *backoff.PermanentError
		if errors.As(err, &pe) {
			return pe.Unwrap()
		}
		return err
	}
	return nil
}

// strategy implements backoff.BackOff with additive uniform jitter:
// min(Delay(n) + uniform(0, 1s), MaxDelay).
type strategy struct {
	cfg     Config
	attempt int
}

func (s *strategy) NextBackOff() time.Duration {
	d := s.cfg.Delay(s.attempt) + time.Duration(rand.Int63n(int64(maxJitter)))
	s.attempt++
	if d > s.cfg.MaxDelay {
		d = s.cfg.MaxDelay
	}
	return d
}

func (s *strategy) Reset() {
	s.attempt = 0
}
