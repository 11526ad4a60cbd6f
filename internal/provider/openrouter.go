package provider

import (
	"context"
	"strings"

	"github.com/sells-group/versus-cli/internal/cost"
	"github.com/sells-group/versus-cli/pkg/openrouter"
)

// OpenRouter adapts the OpenRouter chat completions API. With online set,
// the model runs with the web search plugin.
type OpenRouter struct {
	name   string
	client openrouter.Client
	model  string
	calc   *cost.Calculator
}

// NewOpenRouter creates an OpenRouter adapter. A nil client is unconfigured.
func NewOpenRouter(name string, client openrouter.Client, model string, online bool, calc *cost.Calculator) *OpenRouter {
	if online && model != "" && !strings.HasSuffix(model, openrouter.OnlineSuffix) {
		model += openrouter.OnlineSuffix
	}
	return &OpenRouter{name: name, client: client, model: model, calc: calc}
}

// Name implements Adapter.
func (o *OpenRouter) Name() string { return o.name }

// Configured implements Adapter.
func (o *OpenRouter) Configured() bool { return o.client != nil }

// Invoke implements Adapter.
func (o *OpenRouter) Invoke(ctx context.Context, req Request) Outcome {
	if !o.Configured() {
		return unconfigured(o.name)
	}

	msgs := make([]openrouter.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openrouter.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, openrouter.Message{Role: "user", Content: req.Prompt})

	resp, err := o.client.ChatCompletion(ctx, openrouter.ChatRequest{
		Model:     o.model,
		Messages:  msgs,
		MaxTokens: maxTokens(req),
	})
	if err != nil {
		return finish(o.name, "", Usage{}, err)
	}

	usage := Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		CostUSD:      float64(resp.Usage.Cost),
	}
	if o.calc != nil {
		usage.CostUSD = o.calc.OpenRouter(float64(resp.Usage.Cost), usage.InputTokens, usage.OutputTokens)
	}
	return finish(o.name, resp.Content(), usage, nil)
}
