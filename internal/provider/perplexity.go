package provider

import (
	"context"

	"github.com/sells-group/versus-cli/internal/cost"
	"github.com/sells-group/versus-cli/pkg/perplexity"
)

// Perplexity adapts the search-grounded Perplexity chat API. In structured
// mode the call requests JSON matching a candidate list schema, which lets
// one call both search and format.
type Perplexity struct {
	name       string
	client     perplexity.Client
	calc       *cost.Calculator
	structured bool
}

// NewPerplexity creates a Perplexity adapter. A nil client is unconfigured.
func NewPerplexity(name string, client perplexity.Client, calc *cost.Calculator, structured bool) *Perplexity {
	return &Perplexity{name: name, client: client, calc: calc, structured: structured}
}

// Name implements Adapter.
func (p *Perplexity) Name() string { return p.name }

// Configured implements Adapter.
func (p *Perplexity) Configured() bool { return p.client != nil }

// Invoke implements Adapter.
func (p *Perplexity) Invoke(ctx context.Context, req Request) Outcome {
	if !p.Configured() {
		return unconfigured(p.name)
	}

	q := perplexity.Query{
		System:    req.System,
		Prompt:    req.Prompt,
		MaxTokens: int(maxTokens(req)),
	}
	if p.structured {
		q.Schema = CandidateListSchema()
	}

	ans, err := p.client.Ask(ctx, q)
	if err != nil {
		return finish(p.name, "", Usage{}, err)
	}

	usage := Usage{
		InputTokens:  int64(ans.Usage.PromptTokens),
		OutputTokens: int64(ans.Usage.CompletionTokens),
	}
	if p.calc != nil {
		usage.CostUSD = p.calc.Perplexity(usage.InputTokens, usage.OutputTokens)
	}

	out := finish(p.name, ans.Text, usage, nil)
	out.Citations = ans.Citations
	return out
}
