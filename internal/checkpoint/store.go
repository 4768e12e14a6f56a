/*-------------------------------------------------------------------------
 *
 * store.go
 *    Durable per-request delivery checkpoints
 *
 * The checkpoint file is the relay's only memory across restarts: a map
 * of approval request id to the created_at of the newest message that was
 * durably handed off, plus the timestamp of the last completed poll. The
 * file is rewritten atomically after every state-changing step. A failed
 * write leaves the store dirty so the very next flush retries it; the
 * in-memory state is never discarded.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/checkpoint/store.go
 *
 *-------------------------------------------------------------------------
 */

package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clawbackx/approval-relay/internal/metrics"
)

/* fileState is the on-disk shape of the checkpoint file */
type fileState struct {
	LastChecks map[string]string `json:"last_checks"`
	LastPoll   *string           `json:"last_poll"`
}

/* Store owns the checkpoint file. The daemon is the single writer; the
 * ops endpoint reads concurrently, hence the lock. */
type Store struct {
	mu         sync.RWMutex
	path       string
	lastChecks map[string]time.Time
	lastPoll   time.Time
	dirty      bool
}

/* Load reads the checkpoint file, tolerating a missing or corrupt file by
 * starting fresh. Losing the file only means re-delivering nothing worse
 * than the unacknowledged tail, which the dedup filter bounds. */
func Load(path string) (*Store, error) {
	s := &Store{
		path:       path,
		lastChecks: make(map[string]time.Time),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint file %s: %w", path, err)
	}

	var raw fileState
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("checkpoint file corrupt, starting fresh")
		return s, nil
	}

	for id, ts := range raw.LastChecks {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			log.Warn().Str("request_id", id).Str("ts", ts).Msg("dropping unparseable checkpoint entry")
			continue
		}
		s.lastChecks[id] = t
	}
	if raw.LastPoll != nil {
		if t, err := time.Parse(time.RFC3339Nano, *raw.LastPoll); err == nil {
			s.lastPoll = t
		}
	}
	return s, nil
}

/* Get returns the checkpoint for a request; ok is false when the request
 * has never had a message delivered. */
func (s *Store) Get(requestID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.lastChecks[requestID]
	return t, ok
}

/* Advance moves a request's checkpoint forward. The high-water mark is
 * monotonic: a timestamp at or behind the current mark is a no-op. */
func (s *Store) Advance(requestID string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.lastChecks[requestID]; ok && !ts.After(cur) {
		return
	}
	s.lastChecks[requestID] = ts
	s.dirty = true
}

/* SetLastPoll records the completion time of a poll cycle */
func (s *Store) SetLastPoll(ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPoll = ts
	s.dirty = true
}

/* LastPoll returns the timestamp of the most recent completed cycle */
func (s *Store) LastPoll() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPoll
}

/* Len returns the number of tracked requests */
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lastChecks)
}

/* Flush writes the checkpoint file if anything changed since the last
 * successful write. A write failure keeps the store dirty. */
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if err := s.write(); err != nil {
		metrics.RecordCheckpointFlushError()
		return err
	}
	s.dirty = false
	return nil
}

/* write rewrites the file atomically: temp file in the same directory,
 * fsync, rename over the old file */
func (s *Store) write() error {
	/* RFC3339Nano keeps sub-second precision; flooring to whole seconds
	 * would re-select an already delivered message after a restart */
	raw := fileState{LastChecks: make(map[string]string, len(s.lastChecks))}
	for id, t := range s.lastChecks {
		raw.LastChecks[id] = t.UTC().Format(time.RFC3339Nano)
	}
	if !s.lastPoll.IsZero() {
		lp := s.lastPoll.UTC().Format(time.RFC3339Nano)
		raw.LastPoll = &lp
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("create temp checkpoint file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp checkpoint file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp checkpoint file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace checkpoint file %s: %w", s.path, err)
	}
	return nil
}
