/*-------------------------------------------------------------------------
 *
 * dispatcher.go
 *    Two-path message hand-off
 *
 * Tries signed webhook delivery first; on failure, or when no endpoint
 * is configured, falls back to the durable inbox. Exactly one attempt
 * per message per cycle: a message that fails both paths is retried on
 * the next cycle because its checkpoint never advances.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/dispatch/dispatcher.go
 *
 *-------------------------------------------------------------------------
 */

package dispatch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/clawbackx/approval-relay/internal/gateway"
	"github.com/clawbackx/approval-relay/internal/metrics"
)

/* Via names a delivery path */
type Via string

const (
	ViaWebhook Via = "webhook"
	ViaInbox   Via = "inbox"
	/* ViaNone marks a message that was consumed without a hand-off,
	 * such as a blank message */
	ViaNone Via = "none"
)

/* Delivery is the outcome of one hand-off attempt */
type Delivery struct {
	Delivered bool
	Via       Via
}

/* Dispatcher hands one new user message to the agent */
type Dispatcher struct {
	apiBase  string
	notifier *Notifier
	inbox    *Inbox
}

/* NewDispatcher wires the webhook path (notifier may be nil when no
 * endpoint is configured) and the inbox fallback */
func NewDispatcher(apiBase string, notifier *Notifier, inbox *Inbox) *Dispatcher {
	return &Dispatcher{
		apiBase:  apiBase,
		notifier: notifier,
		inbox:    inbox,
	}
}

/* Deliver attempts the webhook, then the inbox. Inbox write failure is
 * the only Delivered=false outcome. */
func (d *Dispatcher) Deliver(ctx context.Context, approval gateway.ApprovalRequest, msg gateway.ChatMessage) (Delivery, error) {
	payload := NewNotification(d.apiBase, approval, msg)

	if d.notifier != nil {
		err := d.notifier.Notify(ctx, payload)
		if err == nil {
			metrics.RecordDelivery(string(ViaWebhook))
			log.Info().
				Str("request_id", approval.ID).
				Str("message_id", msg.ID).
				Msg("message delivered via webhook")
			return Delivery{Delivered: true, Via: ViaWebhook}, nil
		}
		log.Warn().
			Str("request_id", approval.ID).
			Str("message_id", msg.ID).
			Err(err).
			Msg("webhook delivery failed, falling back to inbox")
	}

	if err := d.inbox.Append(payload); err != nil {
		metrics.RecordDeliveryFailure()
		return Delivery{Delivered: false}, err
	}

	metrics.RecordDelivery(string(ViaInbox))
	log.Info().
		Str("request_id", approval.ID).
		Str("message_id", msg.ID).
		Msg("message delivered via inbox")
	return Delivery{Delivered: true, Via: ViaInbox}, nil
}
