/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for the approval relay daemon
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/cmd/approval-relayd/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/clawbackx/approval-relay/internal/checkpoint"
	"github.com/clawbackx/approval-relay/internal/config"
	"github.com/clawbackx/approval-relay/internal/dispatch"
	"github.com/clawbackx/approval-relay/internal/gateway"
	"github.com/clawbackx/approval-relay/internal/metrics"
	"github.com/clawbackx/approval-relay/internal/ops"
	"github.com/clawbackx/approval-relay/internal/relay"
	"github.com/clawbackx/approval-relay/internal/responder"
	"github.com/clawbackx/approval-relay/internal/workspace"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

/* cliFlags carries the command-line overrides; empty values defer to the
 * config file, environment, and credentials file */
type cliFlags struct {
	configPath      string
	workspacePath   string
	credentialsPath string
	apiBase         string
	botToken        string
	agentID         string
	notifyURL       string
	mode            string
	pollInterval    time.Duration
	opsListen       string
	stateFile       string
	inboxFile       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "approval-relayd",
		Short: "Relay daemon for approval-gateway chat messages",
		Long: "approval-relayd watches an agent's pending spending approvals on the\n" +
			"approval gateway and forwards new user chat messages to the agent via\n" +
			"signed webhook or durable inbox, or answers them directly in respond mode.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to YAML config file")
	pf.StringVarP(&flags.workspacePath, "workspace", "w", "", "agent workspace directory")
	pf.StringVar(&flags.credentialsPath, "credentials", "", "path to gateway credentials file")
	pf.StringVar(&flags.apiBase, "api-base", "", "gateway base URL")
	pf.StringVar(&flags.botToken, "bot-token", "", "gateway bot token (prefer RELAY_BOT_TOKEN)")
	pf.StringVar(&flags.agentID, "agent-id", "", "agent identifier")
	pf.StringVar(&flags.notifyURL, "notify-url", "", "agent webhook URL (empty disables the webhook path)")
	pf.StringVar(&flags.mode, "mode", "", "relay or respond")
	pf.DurationVar(&flags.pollInterval, "poll-interval", 0, "gateway poll interval")
	pf.StringVar(&flags.opsListen, "ops-listen", "", "ops endpoint listen address (empty disables)")
	pf.StringVar(&flags.stateFile, "state-file", "", "checkpoint state file path")
	pf.StringVar(&flags.inboxFile, "inbox-file", "", "inbox fallback file path")

	root.AddCommand(newRunCmd(flags), newOnceCmd(flags), newVersionCmd())
	return root
}

func newRunCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll continuously until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runDaemon(cfg)
		},
	}
}

func newOnceCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single poll cycle and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runOnce(cmd, cfg)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("approval-relayd version %s\n", version)
			fmt.Printf("Build date: %s\n", buildDate)
			fmt.Printf("Git commit: %s\n", gitCommit)
		},
	}
}

/* loadConfig resolves the effective configuration. Precedence, lowest to
 * highest: defaults, config file, environment, credentials file for
 * whatever is still unset, then flags. */
func loadConfig(flags *cliFlags) (*config.Config, error) {
	/* A .env next to the process is a convenience for development */
	_ = godotenv.Load()

	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	config.LoadFromEnv(cfg)

	if flags.workspacePath != "" {
		cfg.Workspace = flags.workspacePath
	}
	if flags.credentialsPath != "" {
		cfg.CredentialsFile = flags.credentialsPath
	}
	if flags.apiBase != "" {
		cfg.APIBase = flags.apiBase
	}
	if flags.botToken != "" {
		cfg.BotToken = flags.botToken
	}
	if flags.agentID != "" {
		cfg.AgentID = flags.agentID
	}
	if flags.notifyURL != "" {
		cfg.NotifyURL = flags.notifyURL
	}
	if flags.mode != "" {
		cfg.Mode = config.Mode(flags.mode)
	}
	if flags.pollInterval > 0 {
		cfg.PollInterval = config.Duration(flags.pollInterval)
	}
	if flags.opsListen != "" {
		cfg.Ops.Listen = flags.opsListen
	}
	if flags.stateFile != "" {
		cfg.StateFile = flags.stateFile
	}
	if flags.inboxFile != "" {
		cfg.InboxFile = flags.inboxFile
	}

	cfg.ResolvePaths()

	/* The credentials file fills whatever remains unset */
	if creds, err := config.LoadCredentials(cfg.CredentialsFile); err == nil {
		creds.Apply(cfg)
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", cfg.CredentialsFile).Err(err).Msg("credentials file unusable")
	}

	metrics.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

/* buildOrchestrator wires the gateway client, dispatch or responder
 * path, and checkpoint store per the configured mode */
func buildOrchestrator(cfg *config.Config) (*relay.Orchestrator, *checkpoint.Store, error) {
	store, err := checkpoint.Load(cfg.StateFile)
	if err != nil {
		return nil, nil, err
	}

	gw := gateway.NewClient(cfg.APIBase, cfg.BotToken, cfg.AgentID)

	if cfg.Mode == config.ModeRespond {
		var r relay.Responder
		if cfg.Responder.Provider != "" {
			llm, err := responder.NewLLMResponder(cfg.Responder, workspace.Load(cfg.Workspace))
			if err != nil {
				return nil, nil, err
			}
			r = llm
		} else {
			log.Info().Msg("no responder provider configured, using template replies")
			r = responder.NewTemplateResponder()
		}
		return relay.NewResponderOrchestrator(gw, r, store), store, nil
	}

	var notifier *dispatch.Notifier
	if cfg.NotifyURL != "" {
		notifier = dispatch.NewNotifier(cfg.NotifyURL, cfg.BotToken)
	}
	dispatcher := dispatch.NewDispatcher(cfg.APIBase, notifier, dispatch.NewInbox(cfg.InboxFile))
	return relay.NewOrchestrator(gw, dispatcher, store), store, nil
}

func runDaemon(cfg *config.Config) error {
	orch, store, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opsServer *ops.Server
	if cfg.Ops.Listen != "" {
		opsServer = ops.NewServer(cfg.Ops.Listen, cfg.AgentID, string(cfg.Mode), store)
		opsServer.Start()
	}

	log.Info().
		Str("agent_id", cfg.AgentID).
		Str("mode", string(cfg.Mode)).
		Str("api_base", cfg.APIBase).
		Bool("webhook", cfg.NotifyURL != "").
		Msg("approval relay starting")

	err = relay.NewDaemon(orch, store, cfg.PollInterval.Std()).Run(ctx)

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if stopErr := opsServer.Stop(shutdownCtx); stopErr != nil {
			log.Error().Err(stopErr).Msg("ops endpoint shutdown failed")
		}
	}
	return err
}

func runOnce(cmd *cobra.Command, cfg *config.Config) error {
	orch, store, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := orch.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("poll cycle failed: %w", err)
	}
	if flushErr := store.Flush(); flushErr != nil {
		log.Error().Err(flushErr).Msg("checkpoint flush failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
