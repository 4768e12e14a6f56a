/*-------------------------------------------------------------------------
 *
 * notify.go
 *    Signed webhook delivery
 *
 * Pushes notification payloads to the agent's live endpoint. The raw body
 * is signed with an HMAC-SHA256 over the shared bot credential so the
 * receiver can authenticate the notification's origin. Any 2xx response
 * is success.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/dispatch/notify.go
 *
 *-------------------------------------------------------------------------
 */

package dispatch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clawbackx/approval-relay/internal/retry"
)

/* Notifier delivers signed notifications to one webhook endpoint */
type Notifier struct {
	url        string
	secret     string
	httpClient *http.Client
	policy     retry.Policy
}

/* NewNotifier creates a webhook notifier signing with the given secret */
func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		policy: retry.DefaultPolicy(),
	}
}

/* Notify posts one payload under the shared retry schedule */
func (n *Notifier) Notify(ctx context.Context, payload Notification) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	signature := Sign(body, n.secret)

	return n.policy.Do(ctx, "webhook notify", func() error {
		return n.post(ctx, body, signature)
	})
}

/* post sends one webhook attempt */
func (n *Notifier) post(ctx context.Context, body []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ApprovalRelay/1.0")
	req.Header.Set("X-Signature", signature)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected: status=%d", resp.StatusCode)
	}
	return nil
}

/* Sign computes the X-Signature header value for a payload body */
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

/* VerifySignature checks an X-Signature header against a payload body.
 * Receivers use this to authenticate notifications. */
func VerifySignature(payload []byte, signature, secret string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	expected := "sha256=" + hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
