/*-------------------------------------------------------------------------
 *
 * orchestrator.go
 *    One poll cycle
 *
 * Drives a single iteration: list pending approvals, fetch each thread,
 * select the new user messages, hand them off in conversational order,
 * and advance checkpoints only for what was durably delivered. Dispatch
 * halts at the first failed message so the delivered set is always a
 * prefix of the ordered backlog; the checkpoint then advances to the
 * delivered maximum and the failed message reappears next cycle.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/relay/orchestrator.go
 *
 *-------------------------------------------------------------------------
 */

package relay

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clawbackx/approval-relay/internal/checkpoint"
	"github.com/clawbackx/approval-relay/internal/dispatch"
	"github.com/clawbackx/approval-relay/internal/gateway"
	"github.com/clawbackx/approval-relay/internal/metrics"
)

/* Gateway is the orchestrator's view of the approval gateway */
type Gateway interface {
	ListPending(ctx context.Context) ([]gateway.ApprovalRequest, error)
	ListMessages(ctx context.Context, requestID string) ([]gateway.ChatMessage, error)
	PostMessage(ctx context.Context, requestID, text string) error
}

/* Deliverer hands one message to the agent (webhook or inbox) */
type Deliverer interface {
	Deliver(ctx context.Context, approval gateway.ApprovalRequest, msg gateway.ChatMessage) (dispatch.Delivery, error)
}

/* Responder generates a reply for respond mode */
type Responder interface {
	Respond(ctx context.Context, approval gateway.ApprovalRequest, msg gateway.ChatMessage) (string, error)
}

/* CycleResult summarizes one completed poll cycle */
type CycleResult struct {
	Timestamp        string `json:"timestamp"`
	PendingApprovals int    `json:"pending_approvals"`
	NewMessages      int    `json:"new_messages"`
	Delivered        int    `json:"delivered"`
	Failed           int    `json:"failed"`
}

/* Orchestrator runs poll cycles against one agent's gateway view */
type Orchestrator struct {
	gw        Gateway
	deliverer Deliverer
	responder Responder
	store     *checkpoint.Store

	/* now is replaceable in tests */
	now func() time.Time
}

/* NewOrchestrator creates a relay-mode orchestrator */
func NewOrchestrator(gw Gateway, deliverer Deliverer, store *checkpoint.Store) *Orchestrator {
	return &Orchestrator{
		gw:        gw,
		deliverer: deliverer,
		store:     store,
		now:       time.Now,
	}
}

/* NewResponderOrchestrator creates a respond-mode orchestrator that
 * posts generated replies back through the gateway */
func NewResponderOrchestrator(gw Gateway, responder Responder, store *checkpoint.Store) *Orchestrator {
	return &Orchestrator{
		gw:        gw,
		responder: responder,
		store:     store,
		now:       time.Now,
	}
}

/* RunCycle executes one poll cycle. A gateway listing failure skips the
 * whole cycle; a per-request failure skips only that request. */
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleResult, error) {
	start := o.now()
	result := CycleResult{Timestamp: start.UTC().Format(time.RFC3339)}

	pending, err := o.gw.ListPending(ctx)
	if err != nil {
		metrics.RecordCycle("gateway_unavailable", o.now().Sub(start))
		return result, err
	}

	result.PendingApprovals = len(pending)
	metrics.SetPendingApprovals(len(pending))

	for _, approval := range pending {
		delivered, failed, newCount := o.processRequest(ctx, approval)
		result.Delivered += delivered
		result.Failed += failed
		result.NewMessages += newCount
	}

	o.store.SetLastPoll(o.now())
	if err := o.store.Flush(); err != nil {
		log.Error().Err(err).Msg("checkpoint flush failed, will retry on next write")
	}

	metrics.RecordCycle("ok", o.now().Sub(start))
	return result, nil
}

/* processRequest relays the new-message backlog for one approval */
func (o *Orchestrator) processRequest(ctx context.Context, approval gateway.ApprovalRequest) (delivered, failed, newCount int) {
	messages, err := o.gw.ListMessages(ctx, approval.ID)
	if err != nil {
		/* Skip this request; others proceed independently */
		log.Warn().Str("request_id", approval.ID).Err(err).Msg("messages unavailable this cycle")
		return 0, 0, 0
	}

	since, _ := o.store.Get(approval.ID)
	backlog := SelectNew(messages, since)
	newCount = len(backlog)
	if newCount == 0 {
		return 0, 0, 0
	}

	log.Info().
		Str("request_id", approval.ID).
		Int("new_messages", newCount).
		Msg("new user messages")

	var maxDelivered time.Time
	for _, msg := range backlog {
		ok := o.handleMessage(ctx, approval, msg)
		if !ok {
			failed++
			/* Halt the batch: delivering later messages while an
			 * earlier one failed would let the checkpoint skip it */
			break
		}
		maxDelivered = msg.CreatedAt
		delivered++
	}

	if !maxDelivered.IsZero() {
		o.store.Advance(approval.ID, maxDelivered)
		if err := o.store.Flush(); err != nil {
			log.Error().Str("request_id", approval.ID).Err(err).Msg("checkpoint flush failed, will retry on next write")
		}
	}
	return delivered, failed, newCount
}

/* handleMessage hands one message off, reporting whether the checkpoint
 * may advance past it */
func (o *Orchestrator) handleMessage(ctx context.Context, approval gateway.ApprovalRequest, msg gateway.ChatMessage) bool {
	/* Blank messages carry no question; consume them so the checkpoint
	 * can move past them */
	if strings.TrimSpace(msg.Message) == "" {
		return true
	}

	if o.responder != nil {
		text, err := o.responder.Respond(ctx, approval, msg)
		if err != nil {
			log.Error().Str("request_id", approval.ID).Err(err).Msg("reply generation failed")
			return false
		}
		if err := o.gw.PostMessage(ctx, approval.ID, text); err != nil {
			log.Error().Str("request_id", approval.ID).Err(err).Msg("reply post failed")
			return false
		}
		log.Info().Str("request_id", approval.ID).Str("message_id", msg.ID).Msg("reply posted")
		return true
	}

	res, err := o.deliverer.Deliver(ctx, approval, msg)
	if err != nil {
		log.Error().Str("request_id", approval.ID).Str("message_id", msg.ID).Err(err).Msg("delivery failed on both paths")
	}
	return res.Delivered
}
