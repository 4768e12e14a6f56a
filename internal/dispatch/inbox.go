/*-------------------------------------------------------------------------
 *
 * inbox.go
 *    Durable inbox fallback
 *
 * Append-only JSONL file of notification records, used when no live
 * webhook endpoint is reachable. The agent consumes entries on its own
 * schedule; this process never removes them. Each append is fsynced so
 * a delivered=true result means the record survives a crash.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/dispatch/inbox.go
 *
 *-------------------------------------------------------------------------
 */

package dispatch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

/* InboxEntry is one appended record: the notification plus inbox-local
 * identity and receipt time */
type InboxEntry struct {
	EntryID    string `json:"entry_id"`
	ReceivedAt string `json:"received_at"`
	Notification
}

/* Inbox appends notification records to a JSONL file */
type Inbox struct {
	path string
}

/* NewInbox creates an inbox writing to the given file path */
func NewInbox(path string) *Inbox {
	return &Inbox{path: path}
}

/* Path returns the inbox file location */
func (ib *Inbox) Path() string {
	return ib.path
}

/* Append durably writes one entry. An I/O error here is the single
 * terminal failure mode for a message in one cycle. */
func (ib *Inbox) Append(payload Notification) error {
	entry := InboxEntry{
		EntryID:      uuid.NewString(),
		ReceivedAt:   time.Now().UTC().Format(time.RFC3339),
		Notification: payload,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal inbox entry: %w", err)
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(ib.path), 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}

	f, err := os.OpenFile(ib.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open inbox file %s: %w", ib.path, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append inbox entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync inbox file: %w", err)
	}
	return nil
}
