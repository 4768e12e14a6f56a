/*-------------------------------------------------------------------------
 *
 * prompt.go
 *    Prompt assembly for respond mode
 *
 * The system prompt is built from the agent's workspace documents so the
 * reply carries the agent's own identity and memory; the user prompt
 * restates the question together with the request being discussed.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/responder/prompt.go
 *
 *-------------------------------------------------------------------------
 */

package responder

import (
	"fmt"
	"strings"

	"github.com/clawbackx/approval-relay/internal/gateway"
	"github.com/clawbackx/approval-relay/internal/workspace"
)

const taskInstructions = `# Your Current Task
You are responding to a message sent by your user through the approval app.
The user is asking about a pending spending request that you submitted for their approval.

Guidelines:
- Answer as yourself using your full identity and context above
- Be concise (under 120 words) and direct
- Reference specific details from the request (vendor, amount, reason) where relevant
- Do NOT tell them to approve or deny, they decide that in the app
- If they ask something you don't know, say so honestly`

/* BuildSystemPrompt assembles the identity sections that exist plus the
 * fixed task instructions */
func BuildSystemPrompt(ctx workspace.Context) string {
	var parts []string
	if ctx.Soul != "" {
		parts = append(parts, "# Who You Are\n"+ctx.Soul)
	}
	if ctx.User != "" {
		parts = append(parts, "# Your User\n"+ctx.User)
	}
	if ctx.Memory != "" {
		parts = append(parts, "# Your Memory\n"+ctx.Memory)
	}
	if ctx.Agents != "" {
		parts = append(parts, "# Agent Instructions\n"+ctx.Agents)
	}
	if ctx.Skill != "" {
		parts = append(parts, "# Skills\n"+ctx.Skill)
	}
	parts = append(parts, taskInstructions)
	return strings.Join(parts, "\n\n")
}

/* BuildUserPrompt frames the user's question with the request details */
func BuildUserPrompt(approval gateway.ApprovalRequest, msg gateway.ChatMessage) string {
	var b strings.Builder
	b.WriteString("The user sent this message about a pending approval request:\n")
	fmt.Fprintf(&b, "%q\n\n", msg.Message)
	b.WriteString("Request details:\n")
	fmt.Fprintf(&b, "  Vendor:   %s\n", approval.Vendor)
	fmt.Fprintf(&b, "  Amount:   %s\n", dollars(approval.AmountCents))
	if approval.Category != "" {
		fmt.Fprintf(&b, "  Category: %s\n", approval.Category)
	}
	fmt.Fprintf(&b, "  Reason:   %s", reasonOr(approval.Reason))
	return b.String()
}

func dollars(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

func reasonOr(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "(no reason provided)"
	}
	return reason
}
