/*-------------------------------------------------------------------------
 *
 * template.go
 *    Keyword-routed template replies
 *
 * The reply path of last resort: no model, no network, always succeeds.
 * Routes a handful of common question shapes to structured answers built
 * from the request itself, so the user is never left without a response
 * when no provider is configured or the provider is down.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/responder/template.go
 *
 *-------------------------------------------------------------------------
 */

package responder

import (
	"context"
	"fmt"
	"strings"

	"github.com/clawbackx/approval-relay/internal/gateway"
)

/* TemplateResponder answers from the request fields alone */
type TemplateResponder struct{}

/* NewTemplateResponder creates the no-model fallback responder */
func NewTemplateResponder() *TemplateResponder {
	return &TemplateResponder{}
}

/* Respond routes the question by keyword and never fails */
func (t *TemplateResponder) Respond(ctx context.Context, approval gateway.ApprovalRequest, msg gateway.ChatMessage) (string, error) {
	question := strings.ToLower(strings.TrimSpace(msg.Message))
	vendor := vendorOr(approval.Vendor)
	amount := dollars(approval.AmountCents)
	reason := reasonOr(approval.Reason)

	if containsAny(question, "why", "reason", "purpose", "what for", "explain") {
		return fmt.Sprintf(
			"The reason I submitted this %s %s request:\n\n%s\n\nLet me know if you need anything else before deciding.",
			amount, vendor, reason,
		), nil
	}

	if containsAny(question, "more info", "details", "tell me more", "elaborate", "give me more", "what is", "what's") {
		lines := []string{
			"Full details:\n",
			"• Vendor:   " + vendor,
			"• Amount:   " + amount,
		}
		if approval.Category != "" {
			lines = append(lines, "• Category: "+approval.Category)
		}
		lines = append(lines, "• Reason:   "+reason)
		return strings.Join(lines, "\n"), nil
	}

	if containsAny(question, "alternative", "other option", "different", "instead") {
		return fmt.Sprintf(
			"I can explore alternatives to %s if you prefer. Deny this request and let me know your constraints.",
			vendor,
		), nil
	}

	return fmt.Sprintf(
		"You asked: %q\n\n%s · %s | %s\n\nHappy to answer any follow-up questions.",
		msg.Message, vendor, amount, reason,
	), nil
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func vendorOr(vendor string) string {
	if strings.TrimSpace(vendor) == "" {
		return "Unknown vendor"
	}
	return vendor
}
