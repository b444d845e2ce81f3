package helpers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffBoundedAndCapped(t *testing.T) {
	b := &Backoff{Min: 100 * time.Millisecond, Max: 800 * time.Millisecond, MaxAttempts: 6}
	var delays []time.Duration
	for {
		d, ok := b.Next()
		if !ok {
			break
		}
		delays = append(delays, d)
	}
	if len(delays) != 6 {
		t.Fatalf("got %d delays, want 6", len(delays))
	}
	for i, d := range delays {
		if d > 960*time.Millisecond {
			t.Errorf("delay %d = %v exceeds cap plus jitter", i, d)
		}
		if d < 80*time.Millisecond {
			t.Errorf("delay %d = %v below floor minus jitter", i, d)
		}
	}
	if delays[5] < 640*time.Millisecond {
		t.Errorf("late delay %v should be near the cap", delays[5])
	}

	b.Reset()
	if b.Attempt() != 0 {
		t.Errorf("Attempt() after Reset = %d, want 0", b.Attempt())
	}
	if _, ok := b.Next(); !ok {
		t.Error("Next() after Reset should succeed")
	}
}

func TestBackoffUnlimited(t *testing.T) {
	b := &Backoff{Min: time.Millisecond, Max: 4 * time.Millisecond}
	for i := 0; i < 50; i++ {
		if _, ok := b.Next(); !ok {
			t.Fatalf("unlimited backoff stopped at attempt %d", i)
		}
	}
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	got, err := RetryWithBackoff(context.Background(), nil, "op", 3, time.Millisecond, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("boom")
		}
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("RetryWithBackoff() = %v, %v, want 42, nil", got, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RetryWithBackoff(ctx, nil, "op", 5, time.Hour, func() (int, error) {
		return 0, errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExecuteWithRetryCategorizes(t *testing.T) {
	h := NewErrorHandler(nil)
	h.BaseDelay = time.Millisecond
	cause := errors.New("disk full")

	err := h.ExecuteWithRetry("archive round", func() error { return cause }, 2)
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("err = %T, want *DatabaseError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false")
	}
	if h.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", h.ErrorCount)
	}

	err = h.ExecuteWithRetry("publish round", func() error { return cause }, 1)
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Errorf("err = %T, want *TransportError", err)
	}
}
