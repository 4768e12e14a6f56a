/*-------------------------------------------------------------------------
 *
 * payload.go
 *    Notification payload for message hand-off
 *
 * One structured record carries everything the agent needs to answer a
 * user question without a further gateway round-trip: the triggering
 * message, the full approval request, and instructions for posting the
 * reply back to the gateway with the agent's own credential. The same
 * shape goes over the webhook wire and into the inbox file.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/dispatch/payload.go
 *
 *-------------------------------------------------------------------------
 */

package dispatch

import (
	"time"

	"github.com/clawbackx/approval-relay/internal/gateway"
)

/* NotificationType is the event type carried in every payload */
const NotificationType = "approval.message"

/* ReplyVia tells the receiving agent how to post its answer back to the
 * gateway directly. The relay never generates the answer itself. */
type ReplyVia struct {
	Method string            `json:"method"`
	URL    string            `json:"url"`
	Body   map[string]string `json:"body"`
	Auth   string            `json:"auth"`
}

/* Notification is the payload delivered for one new user message */
type Notification struct {
	Type        string                  `json:"type"`
	RequestID   string                  `json:"request_id"`
	MessageID   string                  `json:"message_id"`
	Vendor      string                  `json:"vendor"`
	AmountCents int64                   `json:"amount_cents"`
	Category    string                  `json:"category,omitempty"`
	Reason      string                  `json:"reason"`
	Message     string                  `json:"message"`
	FullRequest gateway.ApprovalRequest `json:"full_request"`
	ReplyVia    ReplyVia                `json:"reply_via"`
	Timestamp   string                  `json:"timestamp"`
}

/* NewNotification builds the payload for one approval/message pair */
func NewNotification(apiBase string, approval gateway.ApprovalRequest, msg gateway.ChatMessage) Notification {
	return Notification{
		Type:        NotificationType,
		RequestID:   approval.ID,
		MessageID:   msg.ID,
		Vendor:      approval.Vendor,
		AmountCents: approval.AmountCents,
		Category:    approval.Category,
		Reason:      approval.Reason,
		Message:     msg.Message,
		FullRequest: approval,
		ReplyVia: ReplyVia{
			Method: "POST",
			URL:    apiBase + "/chat-messages",
			Body: map[string]string{
				"approval_request_id": approval.ID,
				"sender":              "agent",
				"message":             "<your reply text>",
			},
			Auth: "Bearer <your bot token>",
		},
		Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
