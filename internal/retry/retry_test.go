/*-------------------------------------------------------------------------
 *
 * retry_test.go
 *    Tests for the fixed-schedule retry policy
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/retry/retry_test.go
 *
 *-------------------------------------------------------------------------
 */

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

/* TestDoSucceedsFirstAttempt verifies no extra attempts after success */
func TestDoSucceedsFirstAttempt(t *testing.T) {
	p := Policy{Delays: []time.Duration{0, time.Millisecond, time.Millisecond}}

	attempts := 0
	err := p.Do(context.Background(), "test", func() error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

/* TestDoRetriesThenSucceeds verifies recovery within the schedule */
func TestDoRetriesThenSucceeds(t *testing.T) {
	p := Policy{Delays: []time.Duration{0, time.Millisecond, time.Millisecond}}

	attempts := 0
	err := p.Do(context.Background(), "test", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

/* TestDoExhaustsSchedule verifies the attempt count is bounded by the table */
func TestDoExhaustsSchedule(t *testing.T) {
	p := Policy{Delays: []time.Duration{0, time.Millisecond, time.Millisecond}}

	sentinel := errors.New("down")
	attempts := 0
	err := p.Do(context.Background(), "test", func() error {
		attempts++
		return sentinel
	})
	if err == nil {
		t.Fatal("expected error after exhausting schedule")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped last error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

/* TestDoNonRetryable verifies the classifier stops the schedule early */
func TestDoNonRetryable(t *testing.T) {
	fatal := errors.New("bad request")
	p := Policy{
		Delays:    []time.Duration{0, time.Millisecond, time.Millisecond},
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
	}

	attempts := 0
	err := p.Do(context.Background(), "test", func() error {
		attempts++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error returned directly, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for non-retryable error, got %d", attempts)
	}
}

/* TestDoContextCancelled verifies cancellation aborts between attempts */
func TestDoContextCancelled(t *testing.T) {
	p := Policy{Delays: []time.Duration{0, time.Hour}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, "test", func() error { return errors.New("transient") })
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}
