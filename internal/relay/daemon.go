/*-------------------------------------------------------------------------
 *
 * daemon.go
 *    Continuous polling loop
 *
 * Wraps the orchestrator in a single-flight cadence: the interval sleep
 * begins after a cycle completes, so a slow cycle delays but never
 * overlaps the next one. Any panic escaping a cycle is caught and
 * logged; only context cancellation ends the loop, after which the
 * in-memory checkpoint is flushed one last time.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/relay/daemon.go
 *
 *-------------------------------------------------------------------------
 */

package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clawbackx/approval-relay/internal/checkpoint"
)

/* Daemon runs the poll loop for one agent */
type Daemon struct {
	orch     *Orchestrator
	store    *checkpoint.Store
	interval time.Duration
}

/* NewDaemon creates the loop around an orchestrator */
func NewDaemon(orch *Orchestrator, store *checkpoint.Store, interval time.Duration) *Daemon {
	return &Daemon{
		orch:     orch,
		store:    store,
		interval: interval,
	}
}

/* Run polls until the context is cancelled. Shutdown is cooperative: a
 * cycle in progress always runs to completion. */
func (d *Daemon) Run(ctx context.Context) error {
	log.Info().Dur("interval", d.interval).Msg("relay daemon started")

	for {
		d.runCycle(ctx)

		select {
		case <-ctx.Done():
			return d.shutdown()
		case <-time.After(d.interval):
		}
	}
}

/* runCycle isolates one cycle so a failure never kills the process */
func (d *Daemon) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("poll cycle panicked, continuing")
		}
	}()

	result, err := d.orch.RunCycle(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("poll cycle skipped")
		return
	}
	if result.Delivered > 0 || result.Failed > 0 {
		log.Info().
			Int("pending", result.PendingApprovals).
			Int("delivered", result.Delivered).
			Int("failed", result.Failed).
			Msg("poll cycle complete")
	}
}

/* shutdown flushes the checkpoint before exit */
func (d *Daemon) shutdown() error {
	log.Info().Msg("relay daemon stopping")
	if err := d.store.Flush(); err != nil {
		log.Error().Err(err).Msg("final checkpoint flush failed")
		return err
	}
	return nil
}
