/*-------------------------------------------------------------------------
 *
 * retry.go
 *    Fixed-schedule retry policy
 *
 * Provides the shared retry discipline for every outbound network call:
 * a fixed table of delays with no jitter and no growth beyond the table,
 * so the gateway client and the webhook notifier cannot drift apart in
 * behavior.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/retry/retry.go
 *
 *-------------------------------------------------------------------------
 */

package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

/* Policy is a fixed retry schedule. Attempt n sleeps Delays[n] before
 * running; the number of attempts equals len(Delays). */
type Policy struct {
	Delays []time.Duration

	/* Retryable classifies an error as worth another attempt. A nil
	 * classifier retries everything. */
	Retryable func(error) bool
}

/* DefaultPolicy is the relay-wide schedule: three attempts at 0s, 1s, 2s.
 * Worst-case added latency per call is about three seconds. */
func DefaultPolicy() Policy {
	return Policy{Delays: []time.Duration{0, 1 * time.Second, 2 * time.Second}}
}

/* Do runs fn under the policy. It returns nil on the first success, the
 * last error once the schedule is exhausted, and ctx.Err() if the context
 * is cancelled while waiting between attempts. */
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	if len(p.Delays) == 0 {
		return fn()
	}

	var lastErr error
	for attempt, delay := range p.Delays {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			if p.Retryable != nil && !p.Retryable(err) {
				return err
			}
			log.Warn().
				Str("op", op).
				Int("attempt", attempt+1).
				Int("max_attempts", len(p.Delays)).
				Err(err).
				Msg("attempt failed")
			continue
		}
		return nil
	}

	return fmt.Errorf("%s: all %d attempts failed: %w", op, len(p.Delays), lastErr)
}
