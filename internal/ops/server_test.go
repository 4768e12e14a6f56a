/*-------------------------------------------------------------------------
 *
 * server_test.go
 *    Tests for the operational endpoint
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/ops/server_test.go
 *
 *-------------------------------------------------------------------------
 */

package ops

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/clawbackx/approval-relay/internal/checkpoint"
)

func testServer(t *testing.T) (*Server, *checkpoint.Store) {
	t.Helper()
	store, err := checkpoint.Load(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	return NewServer("127.0.0.1:0", "agent-1", "relay", store), store
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	srv, store := testServer(t)
	store.Advance("REQ-1", time.Now())
	store.SetLastPoll(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.AgentID != "agent-1" || status.Mode != "relay" {
		t.Errorf("unexpected identity in status: %+v", status)
	}
	if status.Checkpoints != 1 {
		t.Errorf("expected 1 checkpoint, got %d", status.Checkpoints)
	}
	if status.LastPoll != "2025-03-01T12:00:00Z" {
		t.Errorf("unexpected last_poll %q", status.LastPoll)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected metrics exposition output")
	}
}
