/*-------------------------------------------------------------------------
 *
 * credentials.go
 *    Approval Gateway credentials file
 *
 * The gateway bot credential lives in a small `key: value` markdown file
 * in the agent's workspace memory directory, written by the operator from
 * the gateway app (Settings -> Bot Tokens). Lines with no colon and lines
 * starting with '#' are ignored.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/config/credentials.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

/* Credentials is the parsed gateway credential set */
type Credentials struct {
	APIBase   string
	BotToken  string
	AgentID   string
	NotifyURL string
}

/* DefaultCredentialsFile resolves the credentials path for a workspace,
 * preferring the current filename and falling back to the legacy one. */
func DefaultCredentialsFile(workspace string) string {
	preferred := filepath.Join(workspace, "memory", "approval-gateway-credentials.md")
	legacy := filepath.Join(workspace, "memory", "approval-gateway-credentials-simple.md")

	if _, err := os.Stat(preferred); err == nil {
		return preferred
	}
	if _, err := os.Stat(legacy); err == nil {
		return legacy
	}
	return preferred
}

/* LoadCredentials parses the credentials file */
func LoadCredentials(path string) (*Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("credentials file %s: %w", path, err)
	}
	defer f.Close()

	creds := &Credentials{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		value = strings.TrimSpace(value)

		switch key {
		case "token":
			creds.BotToken = value
		case "api_base":
			creds.APIBase = value
		case "agent_id":
			creds.AgentID = value
		case "notify_url":
			creds.NotifyURL = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read credentials file %s: %w", path, err)
	}

	if creds.BotToken == "" {
		return nil, fmt.Errorf("no 'token:' line found in %s", path)
	}
	if creds.AgentID == "" {
		return nil, fmt.Errorf("no 'agent_id:' line found in %s", path)
	}
	return creds, nil
}

/* Apply overlays non-empty credential values onto the config. Values
 * already set (flags, environment) win. */
func (c *Credentials) Apply(cfg *Config) {
	if cfg.APIBase == "" {
		cfg.APIBase = c.APIBase
	}
	if cfg.BotToken == "" {
		cfg.BotToken = c.BotToken
	}
	if cfg.AgentID == "" {
		cfg.AgentID = c.AgentID
	}
	if cfg.NotifyURL == "" {
		cfg.NotifyURL = c.NotifyURL
	}
}
