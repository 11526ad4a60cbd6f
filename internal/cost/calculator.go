package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Anthropic  map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityRate       `yaml:"perplexity" mapstructure:"perplexity"`
	OpenRouter TokenRate            `yaml:"openrouter" mapstructure:"openrouter"`
	Search     SearchRate           `yaml:"search" mapstructure:"search"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// PerplexityRate holds Perplexity pricing: a flat request fee plus tokens.
type PerplexityRate struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
	Input    float64 `yaml:"input" mapstructure:"input"`
	Output   float64 `yaml:"output" mapstructure:"output"`
}

// TokenRate holds plain per-million-token pricing.
type TokenRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// SearchRate holds flat per-query pricing for the evidence backends.
type SearchRate struct {
	Exa    float64 `yaml:"exa" mapstructure:"exa"`
	Jina   float64 `yaml:"jina" mapstructure:"jina"`
	Google float64 `yaml:"google" mapstructure:"google"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost for a Claude API call.
func (c *Calculator) Claude(model string, input, output, cacheWrite, cacheRead int64) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}

	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	cwCost := (float64(cacheWrite) / 1e6) * rate.Input * rate.CacheWriteMul
	crCost := (float64(cacheRead) / 1e6) * rate.Input * rate.CacheReadMul

	return inCost + outCost + cwCost + crCost
}

// Perplexity computes the cost for one Perplexity chat completion.
func (c *Calculator) Perplexity(input, output int64) float64 {
	r := c.rates.Perplexity
	return r.PerQuery + (float64(input)/1e6)*r.Input + (float64(output)/1e6)*r.Output
}

// OpenRouter returns the cost OpenRouter reported, or an estimate from token
// counts when the response carried none.
func (c *Calculator) OpenRouter(reported float64, input, output int64) float64 {
	if reported > 0 {
		return reported
	}
	r := c.rates.OpenRouter
	return (float64(input)/1e6)*r.Input + (float64(output)/1e6)*r.Output
}

// Search returns the flat per-query cost of an evidence backend.
func (c *Calculator) Search(backend string) float64 {
	switch backend {
	case "exa":
		return c.rates.Search.Exa
	case "jina":
		return c.rates.Search.Jina
	case "google":
		return c.rates.Search.Google
	default:
		return 0
	}
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {
				Input: 1.00, Output: 5.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"claude-sonnet-4-5-20250929": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
		Perplexity: PerplexityRate{PerQuery: 0.006, Input: 3.00, Output: 15.00},
		OpenRouter: TokenRate{Input: 1.00, Output: 5.00},
		Search:     SearchRate{Exa: 0.005, Jina: 0.0004, Google: 0.005},
	}
}
