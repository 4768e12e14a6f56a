/*-------------------------------------------------------------------------
 *
 * types.go
 *    Wire types for the Approval Gateway REST API
 *
 * Tagged record types for approval requests and chat messages, validated
 * at the client boundary so malformed server responses fail fast at one
 * seam instead of propagating.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/gateway/types.go
 *
 *-------------------------------------------------------------------------
 */

package gateway

import (
	"encoding/json"
	"fmt"
	"time"
)

/* Status is the lifecycle state of an approval request. The gateway owns
 * the lifecycle; the relay only reads it. */
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
)

/* Sender identifies which side of the conversation authored a message */
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

/* ApprovalRequest is one spending decision awaiting human review */
type ApprovalRequest struct {
	ID          string `json:"id"`
	AgentID     string `json:"agent_id,omitempty"`
	Status      Status `json:"status"`
	Vendor      string `json:"vendor"`
	AmountCents int64  `json:"spending_amount_cents"`
	Category    string `json:"category,omitempty"`
	Reason      string `json:"reason"`
	DealSlug    string `json:"deal_slug,omitempty"`
}

/* Validate checks the fields the relay depends on */
func (a *ApprovalRequest) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("approval request missing id")
	}
	if a.AmountCents < 0 {
		return fmt.Errorf("approval request %s: negative amount_cents %d", a.ID, a.AmountCents)
	}
	return nil
}

/* ChatMessage is one turn in the conversation attached to an approval
 * request. CreatedAt is the gateway-assigned ordering key, not wall-clock
 * truth. */
type ChatMessage struct {
	ID                string    `json:"id"`
	ApprovalRequestID string    `json:"approval_request_id"`
	Sender            Sender    `json:"sender"`
	Message           string    `json:"message"`
	CreatedAt         time.Time `json:"created_at"`
}

/* chatMessageWire carries the raw created_at string off the wire */
type chatMessageWire struct {
	ID                string `json:"id"`
	ApprovalRequestID string `json:"approval_request_id"`
	Sender            string `json:"sender"`
	Message           string `json:"message"`
	CreatedAt         string `json:"created_at"`
}

/* UnmarshalJSON parses the RFC 3339 timestamp at the boundary. A bad or
 * missing created_at leaves the zero value so Validate can drop the one
 * record; erroring here would abort decoding the whole thread and wedge
 * the request on every cycle. */
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var w chatMessageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	m.ID = w.ID
	m.ApprovalRequestID = w.ApprovalRequestID
	m.Sender = Sender(w.Sender)
	m.Message = w.Message
	if ts, err := time.Parse(time.RFC3339Nano, w.CreatedAt); err == nil {
		m.CreatedAt = ts
	} else {
		m.CreatedAt = time.Time{}
	}
	return nil
}

/* MarshalJSON writes created_at back as RFC 3339 UTC with full
 * sub-second precision */
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(chatMessageWire{
		ID:                m.ID,
		ApprovalRequestID: m.ApprovalRequestID,
		Sender:            string(m.Sender),
		Message:           m.Message,
		CreatedAt:         m.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

/* Validate checks the fields the relay depends on */
func (m *ChatMessage) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("chat message missing id")
	}
	if m.CreatedAt.IsZero() {
		return fmt.Errorf("chat message %s: missing created_at", m.ID)
	}
	return nil
}
