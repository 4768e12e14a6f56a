/*-------------------------------------------------------------------------
 *
 * llm.go
 *    Model-backed reply generation
 *
 * Calls an OpenAI-compatible chat completion endpoint selected from an
 * explicit provider table. A provider entry names its base URL, the
 * environment variable holding its key, and the model; nothing is ever
 * inferred from the model string. A failed or empty completion falls
 * back to the template responder so respond mode still answers.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/responder/llm.go
 *
 *-------------------------------------------------------------------------
 */

package responder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/clawbackx/approval-relay/internal/config"
	"github.com/clawbackx/approval-relay/internal/gateway"
	"github.com/clawbackx/approval-relay/internal/workspace"
)

/* completionTimeout bounds one model call */
const completionTimeout = 30 * time.Second

/* LLMResponder generates replies through a configured provider */
type LLMResponder struct {
	client    *openai.Client
	model     string
	maxTokens int
	wsCtx     workspace.Context
	fallback  *TemplateResponder
}

/* NewLLMResponder resolves the provider table entry and its credential.
 * The provider name must exist in the table and its key environment
 * variable must be set. */
func NewLLMResponder(rc config.ResponderConfig, wsCtx workspace.Context) (*LLMResponder, error) {
	provider, ok := rc.Providers[rc.Provider]
	if !ok {
		return nil, fmt.Errorf("responder provider %q not in provider table", rc.Provider)
	}
	if provider.Model == "" {
		return nil, fmt.Errorf("responder provider %q has no model", rc.Provider)
	}
	if provider.APIKeyEnv == "" {
		return nil, fmt.Errorf("responder provider %q has no api_key_env", rc.Provider)
	}
	apiKey := os.Getenv(provider.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("responder provider %q: %s is not set", rc.Provider, provider.APIKeyEnv)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if provider.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(provider.BaseURL, "/")
	}

	maxTokens := rc.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	return &LLMResponder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     provider.Model,
		maxTokens: maxTokens,
		wsCtx:     wsCtx,
		fallback:  NewTemplateResponder(),
	}, nil
}

/* Respond asks the model for a reply, falling back to the template
 * responder when the provider fails */
func (r *LLMResponder) Respond(ctx context.Context, approval gateway.ApprovalRequest, msg gateway.ChatMessage) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(r.wsCtx)},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(approval, msg)},
		},
	})
	if err != nil {
		log.Warn().Str("model", r.model).Err(err).Msg("completion failed, using template reply")
		return r.fallback.Respond(ctx, approval, msg)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		log.Warn().Str("model", r.model).Msg("empty completion, using template reply")
		return r.fallback.Respond(ctx, approval, msg)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
