/*-------------------------------------------------------------------------
 *
 * filter_test.go
 *    Tests for the message dedup filter
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/relay/filter_test.go
 *
 *-------------------------------------------------------------------------
 */

package relay

import (
	"testing"
	"time"

	"github.com/clawbackx/approval-relay/internal/gateway"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func userMsg(id string, at time.Time) gateway.ChatMessage {
	return gateway.ChatMessage{ID: id, Sender: gateway.SenderUser, Message: "q", CreatedAt: at}
}

func agentMsg(id string, at time.Time) gateway.ChatMessage {
	return gateway.ChatMessage{ID: id, Sender: gateway.SenderAgent, Message: "a", CreatedAt: at}
}

/* TestSelectNewOrdering verifies ascending created_at output */
func TestSelectNewOrdering(t *testing.T) {
	t1 := ts(t, "2025-01-01T00:00:01Z")
	t2 := ts(t, "2025-01-01T00:00:02Z")
	t3 := ts(t, "2025-01-01T00:00:03Z")

	/* Deliberately shuffled input */
	got := SelectNew([]gateway.ChatMessage{
		userMsg("M3", t3), userMsg("M1", t1), userMsg("M2", t2),
	}, time.Time{})

	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, want := range []string{"M1", "M2", "M3"} {
		if got[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].ID)
		}
	}
}

/* TestSelectNewSenderFilter verifies agent messages never pass */
func TestSelectNewSenderFilter(t *testing.T) {
	t1 := ts(t, "2025-01-01T00:00:01Z")
	t2 := ts(t, "2025-01-01T00:00:02Z")

	got := SelectNew([]gateway.ChatMessage{
		agentMsg("A1", t1), userMsg("M1", t2), agentMsg("A2", t2.Add(time.Hour)),
	}, time.Time{})

	if len(got) != 1 || got[0].ID != "M1" {
		t.Fatalf("expected only M1, got %+v", got)
	}
}

/* TestSelectNewStrictness verifies equal-to-checkpoint is excluded */
func TestSelectNewStrictness(t *testing.T) {
	mark := ts(t, "2025-01-01T00:00:02Z")

	got := SelectNew([]gateway.ChatMessage{
		userMsg("Mold", mark.Add(-time.Second)),
		userMsg("Meq", mark),
		userMsg("Mnew", mark.Add(time.Second)),
	}, mark)

	if len(got) != 1 || got[0].ID != "Mnew" {
		t.Fatalf("expected only strictly newer message, got %+v", got)
	}
}

/* TestSelectNewAbsentCheckpoint verifies first-contact keeps everything */
func TestSelectNewAbsentCheckpoint(t *testing.T) {
	t1 := ts(t, "2020-01-01T00:00:00Z")

	got := SelectNew([]gateway.ChatMessage{userMsg("M1", t1)}, time.Time{})
	if len(got) != 1 {
		t.Fatalf("expected all qualifying messages on first contact, got %d", len(got))
	}
}

/* TestSelectNewEmptyInput verifies the trivial case */
func TestSelectNewEmptyInput(t *testing.T) {
	if got := SelectNew(nil, time.Time{}); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
