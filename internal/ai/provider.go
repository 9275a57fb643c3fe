// Package ai asks a language model to turn a page's field inventory and a
// plain-language request into a command plan.
package ai

import (
	"context"
	"fmt"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/scraper"
)

// Provider generates plans.
type Provider interface {
	GeneratePlan(ctx context.Context, page *scraper.Result, prompt string) (*command.Plan, error)
}

// NewProvider creates a new AI provider based on the provider name
func NewProvider(name, model string) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeProvider(model)
	case "openai", "gpt":
		return NewOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}

// completer sends one system and user message pair and returns the reply.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

func generate(ctx context.Context, c completer, vendor string, page *scraper.Result, prompt string) (*command.Plan, error) {
	user, err := buildUserPrompt(page, prompt)
	if err != nil {
		return nil, err
	}
	reply, err := c.complete(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", vendor, err)
	}
	if reply == "" {
		return nil, fmt.Errorf("empty response from %s", vendor)
	}

	plan, err := parsePlan(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response as a plan: %w\nResponse: %s", vendor, err, reply)
	}
	return plan, nil
}
