package provider

import (
	"context"

	"github.com/sells-group/versus-cli/internal/cost"
	"github.com/sells-group/versus-cli/pkg/anthropic"
)

// Anthropic adapts the Claude messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
	calc   *cost.Calculator
}

// NewAnthropic creates a Claude adapter. A nil client is unconfigured; an
// empty model uses anthropic.DefaultModel.
func NewAnthropic(client anthropic.Client, model string, calc *cost.Calculator) *Anthropic {
	if model == "" {
		model = anthropic.DefaultModel
	}
	return &Anthropic{client: client, model: model, calc: calc}
}

// Name implements Adapter.
func (a *Anthropic) Name() string { return "anthropic" }

// Configured implements Adapter.
func (a *Anthropic) Configured() bool { return a.client != nil }

// Invoke implements Adapter.
func (a *Anthropic) Invoke(ctx context.Context, req Request) Outcome {
	if !a.Configured() {
		return unconfigured(a.Name())
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   maxTokens(req),
		System:      req.System,
		CacheSystem: true,
		Prompt:      req.Prompt,
	})
	if err != nil {
		return finish(a.Name(), "", Usage{}, err)
	}

	u := resp.Usage
	usage := Usage{InputTokens: u.PromptTokens(), OutputTokens: u.OutputTokens}
	if a.calc != nil {
		usage.CostUSD = a.calc.Claude(a.model, u.InputTokens, u.OutputTokens, u.CacheWriteTokens, u.CacheReadTokens)
	}
	return finish(a.Name(), resp.Text(), usage, nil)
}
