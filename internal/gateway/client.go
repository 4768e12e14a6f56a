/*-------------------------------------------------------------------------
 *
 * client.go
 *    HTTP client for the Approval Gateway REST API
 *
 * Typed wrapper over the gateway's bot endpoints with bearer credentials,
 * a fixed client identifier, bounded retries, and a hard per-request
 * timeout shorter than the poll interval budget. Failures never escape
 * this boundary as anything other than an ErrUnavailable-wrapped error,
 * so one unreachable resource costs at most one skipped cycle.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/gateway/client.go
 *
 *-------------------------------------------------------------------------
 */

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clawbackx/approval-relay/internal/metrics"
	"github.com/clawbackx/approval-relay/internal/retry"
)

/* ErrUnavailable marks a resource the gateway could not serve this cycle.
 * The orchestrator skips the resource and retries next cycle. */
var ErrUnavailable = errors.New("gateway unavailable")

/* UserAgent is the fixed client identifier attached to every call */
const UserAgent = "ApprovalRelay/1.0"

/* requestTimeout bounds one HTTP exchange; it must stay below the poll
 * interval so a slow gateway cannot starve subsequent cycles. */
const requestTimeout = 10 * time.Second

/* Client issues authenticated calls against one agent's view of the
 * Approval Gateway */
type Client struct {
	baseURL    string
	token      string
	agentID    string
	httpClient *http.Client
	policy     retry.Policy
}

/* NewClient creates a gateway client for the given bot credential */
func NewClient(baseURL, token, agentID string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		agentID: agentID,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		policy: retry.DefaultPolicy(),
	}
}

/* AgentID returns the agent this client is authenticated as */
func (c *Client) AgentID() string {
	return c.agentID
}

/* BaseURL returns the gateway base URL */
func (c *Client) BaseURL() string {
	return c.baseURL
}

/* ListPending fetches the approval requests awaiting a decision for this
 * agent. Stale or terminal requests and requests owned by another agent
 * are excluded here, at the boundary. */
func (c *Client) ListPending(ctx context.Context) ([]ApprovalRequest, error) {
	var out struct {
		Approvals []ApprovalRequest `json:"approvals"`
	}

	path := "/pending-approvals?agent_id=" + url.QueryEscape(c.agentID)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	pending := make([]ApprovalRequest, 0, len(out.Approvals))
	for _, a := range out.Approvals {
		if err := a.Validate(); err != nil {
			log.Warn().Err(err).Msg("dropping malformed approval request")
			continue
		}
		if a.Status != StatusPending {
			continue
		}
		if a.AgentID != "" && a.AgentID != c.agentID {
			log.Warn().
				Str("request_id", a.ID).
				Str("agent_id", a.AgentID).
				Str("expected", c.agentID).
				Msg("dropping approval request with agent mismatch")
			continue
		}
		pending = append(pending, a)
	}
	return pending, nil
}

/* ListMessages fetches the full chat thread for one approval request,
 * ordered by created_at ascending */
func (c *Client) ListMessages(ctx context.Context, requestID string) ([]ChatMessage, error) {
	var out struct {
		Messages []ChatMessage `json:"messages"`
	}

	path := "/chat-messages/" + url.PathEscape(requestID)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	messages := make([]ChatMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		if err := m.Validate(); err != nil {
			log.Warn().Str("request_id", requestID).Err(err).Msg("dropping malformed chat message")
			continue
		}
		messages = append(messages, m)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

/* PostMessage posts an agent-authored reply into the approval chat */
func (c *Client) PostMessage(ctx context.Context, requestID, text string) error {
	body := map[string]string{
		"approval_request_id": requestID,
		"sender":              string(SenderAgent),
		"message":             text,
	}

	var out struct {
		Success bool `json:"success"`
	}
	if err := c.call(ctx, http.MethodPost, "/chat-messages", body, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("post message for %s rejected: %w", requestID, ErrUnavailable)
	}
	return nil
}

/* call runs one gateway exchange under the shared retry schedule. Every
 * terminal failure, including a malformed response body, is reported as
 * ErrUnavailable: fail closed, skip the cycle, never crash. */
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request for %s %s: %w", method, path, err)
		}
	}

	op := method + " " + path
	err := c.policy.Do(ctx, op, func() error {
		return c.once(ctx, method, path, payload, out)
	})
	if err != nil {
		metrics.RecordGatewayRequest(method, "error")
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	metrics.RecordGatewayRequest(method, "ok")
	return nil
}

/* once issues a single HTTP attempt */
func (c *Client) once(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
