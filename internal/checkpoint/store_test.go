/*-------------------------------------------------------------------------
 *
 * store_test.go
 *    Tests for the checkpoint store
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/checkpoint/store_test.go
 *
 *-------------------------------------------------------------------------
 */

package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

/* TestLoadMissingFile verifies a fresh store when no file exists */
func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", s.Len())
	}
	if _, ok := s.Get("R1"); ok {
		t.Error("expected no checkpoint for unseen request")
	}
}

/* TestLoadCorruptFile verifies fail-open recovery from a corrupt file */
func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load should tolerate corruption, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected fresh store after corruption, got %d entries", s.Len())
	}
}

/* TestRoundTrip verifies state survives a flush and reload */
func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory", "state.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	t1 := mustTime(t, "2025-01-01T00:00:00Z")
	poll := mustTime(t, "2025-01-01T00:00:05Z")
	s.Advance("R1", t1)
	s.SetLastPoll(poll)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reloaded.Get("R1")
	if !ok || !got.Equal(t1) {
		t.Errorf("expected R1 checkpoint %v, got %v (ok=%v)", t1, got, ok)
	}
	if !reloaded.LastPoll().Equal(poll) {
		t.Errorf("expected last poll %v, got %v", poll, reloaded.LastPoll())
	}
}

/* TestRoundTripSubSecond verifies sub-second timestamps survive the
 * file. Flooring to whole seconds would make a fresh process re-select
 * the last delivered message. */
func TestRoundTripSubSecond(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	t1 := mustTime(t, "2025-01-01T00:00:01.5Z")
	s.Advance("R1", t1)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reloaded.Get("R1")
	if !ok {
		t.Fatal("R1 checkpoint missing after reload")
	}
	if !got.Equal(t1) {
		t.Errorf("checkpoint lost precision: wrote %v, read %v", t1, got)
	}
	if t1.After(got) {
		t.Errorf("reloaded checkpoint %v is behind the delivered timestamp %v", got, t1)
	}
}

/* TestFileFormat verifies the on-disk shape other tools consume */
func TestFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Advance("R1", mustTime(t, "2025-01-01T00:00:00Z"))
	s.SetLastPoll(mustTime(t, "2025-01-02T00:00:00Z"))
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw struct {
		LastChecks map[string]string `json:"last_checks"`
		LastPoll   string            `json:"last_poll"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if raw.LastChecks["R1"] != "2025-01-01T00:00:00Z" {
		t.Errorf("unexpected last_checks entry: %q", raw.LastChecks["R1"])
	}
	if raw.LastPoll != "2025-01-02T00:00:00Z" {
		t.Errorf("unexpected last_poll: %q", raw.LastPoll)
	}
}

/* TestAdvanceMonotonic verifies the high-water mark never moves backward */
func TestAdvanceMonotonic(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	t2 := mustTime(t, "2025-01-02T00:00:00Z")
	t1 := mustTime(t, "2025-01-01T00:00:00Z")

	s.Advance("R1", t2)
	s.Advance("R1", t1)

	got, _ := s.Get("R1")
	if !got.Equal(t2) {
		t.Errorf("checkpoint moved backward: %v", got)
	}

	/* Equal timestamp is also a no-op */
	s.Advance("R1", t2)
	got, _ = s.Get("R1")
	if !got.Equal(t2) {
		t.Errorf("checkpoint changed on equal advance: %v", got)
	}
}

/* TestFlushClean verifies a clean store skips the write */
func TestFlushClean(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush on clean store: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("clean flush should not create the file")
	}
}

/* TestFlushRetriesAfterFailure verifies dirty state persists across a
 * failed write attempt */
func TestFlushRetriesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "state.json")
	/* A directory at the target path makes rename fail */
	if err := os.MkdirAll(filepath.Join(blocker, "x"), 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := Load(filepath.Join(dir, "other.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.path = blocker
	s.Advance("R1", mustTime(t, "2025-01-01T00:00:00Z"))

	if err := s.Flush(); err == nil {
		t.Fatal("expected flush failure")
	}

	/* Unblock and retry: the dirty state must still be written */
	if err := os.RemoveAll(blocker); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("retry flush: %v", err)
	}

	reloaded, err := Load(blocker)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reloaded.Get("R1"); !ok {
		t.Error("state lost across failed flush")
	}
}
