package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:        maxRetries,
		BaseDelay:         time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		RetryableStatuses: []int{408, 429, 500, 502, 503, 504},
	}
}

func TestDelayMonotonicAndCapped(t *testing.T) {
	cfg := DefaultConfig()
	prev := time.Duration(0)
	for attempt := 0; attempt < 12; attempt++ {
		d := cfg.Delay(attempt)
		if d < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		if d > cfg.MaxDelay {
			t.Fatalf("delay %v exceeds max %v at attempt %d", d, cfg.MaxDelay, attempt)
		}
		prev = d
	}
	if got := cfg.Delay(0); got != time.Second {
		t.Fatalf("expected base delay 1s for attempt 0, got %v", got)
	}
	if got := cfg.Delay(100); got != cfg.MaxDelay {
		t.Fatalf("expected cap %v for large attempt, got %v", cfg.MaxDelay, got)
	}
}

func TestRetryableClassification(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Retryable(timeoutErr{}) {
		t.Fatalf("expected network timeout to be retryable")
	}
	if !cfg.Retryable(context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded to be retryable")
	}
	if !cfg.Retryable(&StatusError{Code: 503}) {
		t.Fatalf("expected 503 to be retryable")
	}
	if cfg.Retryable(&StatusError{Code: 404}) {
		t.Fatalf("expected 404 to be non-retryable")
	}
	if cfg.Retryable(errors.New("malformed payload")) {
		t.Fatalf("expected plain error to be non-retryable")
	}
	if cfg.Retryable(nil) {
		t.Fatalf("expected nil to be non-retryable")
	}
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoAbortsOnNonRetryable(t *testing.T) {
	sentinel := errors.New("bad api key")
	calls := 0
	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(2), func(ctx context.Context) error {
		calls++
		return &StatusError{Code: 502}
	})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 502 {
		t.Fatalf("expected last StatusError 502, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected initial call + 2 retries = 3 calls, got %d", calls)
	}
}

func TestDoInvokesOnRetry(t *testing.T) {
	cfg := fastConfig(2)
	var attempts []int
	var delays []time.Duration
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	}

	_ = Do(context.Background(), cfg, func(ctx context.Context) error {
		return &StatusError{Code: 429}
	})

	if len(attempts) != 2 {
		t.Fatalf("expected 2 retry notifications, got %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Fatalf("expected attempts [1 2], got %v", attempts)
	}
	for _, d := range delays {
		if d > cfg.MaxDelay {
			t.Fatalf("observed delay %v above max %v", d, cfg.MaxDelay)
		}
	}
}
