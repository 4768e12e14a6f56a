/*-------------------------------------------------------------------------
 *
 * context.go
 *    Agent workspace context documents
 *
 * Respond mode answers in the agent's own voice, so the reply prompt is
 * assembled from the identity documents the agent keeps in its workspace
 * root. Every document is optional; a missing file reads as empty and
 * the prompt simply omits that section.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/workspace/context.go
 *
 *-------------------------------------------------------------------------
 */

package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

/* Context holds the agent's identity documents */
type Context struct {
	Soul   string
	User   string
	Memory string
	Agents string
	Skill  string
}

/* Load reads the identity documents from a workspace root. Missing files
 * are not errors; a document that exists but cannot be read is logged
 * and treated as absent. */
func Load(dir string) Context {
	return Context{
		Soul:   readDoc(dir, "SOUL.md"),
		User:   readDoc(dir, "USER.md"),
		Memory: readDoc(dir, "MEMORY.md"),
		Agents: readDoc(dir, "AGENTS.md"),
		Skill:  readDoc(dir, "SKILL.md"),
	}
}

/* Empty reports whether no document carried any content */
func (c Context) Empty() bool {
	return c.Soul == "" && c.User == "" && c.Memory == "" &&
		c.Agents == "" && c.Skill == ""
}

func readDoc(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Str("file", name).Err(err).Msg("context document unreadable")
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}
