/*-------------------------------------------------------------------------
 *
 * filter.go
 *    Message dedup filter
 *
 * Pure selection of the messages that are genuinely new input for the
 * agent: authored by the human side and strictly newer than the
 * checkpoint. The strict comparison makes checkpoint advance idempotent
 * under re-poll, and excluding agent-authored messages prevents the
 * relay from reacting to the agent's own replies.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/relay/filter.go
 *
 *-------------------------------------------------------------------------
 */

package relay

import (
	"sort"
	"time"

	"github.com/clawbackx/approval-relay/internal/gateway"
)

/* SelectNew returns the user-authored messages with created_at strictly
 * after since, in ascending created_at order. A zero since means the
 * request has never been seen, so every qualifying message is new.
 * Equal-to-checkpoint timestamps are already processed. */
func SelectNew(messages []gateway.ChatMessage, since time.Time) []gateway.ChatMessage {
	selected := make([]gateway.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Sender != gateway.SenderUser {
			continue
		}
		if !since.IsZero() && !m.CreatedAt.After(since) {
			continue
		}
		selected = append(selected, m)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].CreatedAt.Before(selected[j].CreatedAt)
	})
	return selected
}
