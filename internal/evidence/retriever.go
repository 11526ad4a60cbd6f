// Package evidence retrieves, filters and ranks search snippets that ground
// generated content.
package evidence

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/versus-cli/internal/cost"
	"github.com/sells-group/versus-cli/internal/model"
)

const (
	defaultMaxResults = 3
	defaultMaxChars   = 500
)

// Result is the outcome of one retrieval.
type Result struct {
	Evidence []model.SearchEvidence
	Backend  string
	CostUSD  float64
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithBlocklist replaces the default domain blocklist.
func WithBlocklist(domains []string) Option {
	return func(r *Retriever) {
		r.blocklist = domains
	}
}

// WithMaxResults caps how many snippets are returned.
func WithMaxResults(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

// WithMaxChars caps each snippet's text length in runes.
func WithMaxChars(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.maxChars = n
		}
	}
}

// WithCostCalculator attributes per-query search cost to results.
func WithCostCalculator(calc *cost.Calculator) Option {
	return func(r *Retriever) {
		r.calc = calc
	}
}

// Retriever queries backends in order and filters what the first useful one
// returns. It is safe for concurrent use.
type Retriever struct {
	backends   []Backend
	blocklist  []string
	maxResults int
	maxChars   int
	calc       *cost.Calculator
}

// NewRetriever creates a Retriever over backends, tried in the given order.
func NewRetriever(backends []Backend, opts ...Option) *Retriever {
	r := &Retriever{
		backends:   backends,
		blocklist:  DefaultBlocklist,
		maxResults: defaultMaxResults,
		maxChars:   defaultMaxChars,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Enabled reports whether any backend is configured.
func (r *Retriever) Enabled() bool {
	return r != nil && len(r.backends) > 0
}

// FindEvidence returns at most the top results relevant to query. Backend
// failures yield an empty list, never an error.
func (r *Retriever) FindEvidence(ctx context.Context, query string) []model.SearchEvidence {
	return r.Search(ctx, query).Evidence
}

// Search is FindEvidence with the backend used and its cost.
func (r *Retriever) Search(ctx context.Context, query string) Result {
	var res Result
	if !r.Enabled() || strings.TrimSpace(query) == "" {
		return res
	}

	for _, b := range r.backends {
		if ctx.Err() != nil {
			return res
		}
		hits, err := b.Search(ctx, query)
		if r.calc != nil {
			res.CostUSD += r.calc.Search(b.Name())
		}
		if err != nil {
			zap.L().Warn("evidence: backend failed, trying next",
				zap.String("backend", b.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		if len(hits) == 0 {
			zap.L().Debug("evidence: backend returned no hits",
				zap.String("backend", b.Name()),
				zap.String("query", query),
			)
			continue
		}

		res.Backend = b.Name()
		res.Evidence = r.filter(query, hits)
		zap.L().Debug("evidence: retrieved",
			zap.String("backend", b.Name()),
			zap.Int("hits", len(hits)),
			zap.Int("kept", len(res.Evidence)),
		)
		return res
	}
	return res
}

// filter applies the blocklist then the relevance threshold, ranks by
// backend score and keeps the top results.
func (r *Retriever) filter(query string, hits []Hit) []model.SearchEvidence {
	kept := make([]Hit, 0, len(hits))
	for _, h := range hits {
		host := hostnameFromURL(h.URL)
		if host == "" || blocked(host, r.blocklist) {
			continue
		}
		if !Relevant(query, h.Title+" "+h.Text) {
			continue
		}
		kept = append(kept, h)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return scoreOf(kept[i]) > scoreOf(kept[j])
	})
	if len(kept) > r.maxResults {
		kept = kept[:r.maxResults]
	}

	out := make([]model.SearchEvidence, 0, len(kept))
	for _, h := range kept {
		out = append(out, model.SearchEvidence{
			Title:          strings.TrimSpace(h.Title),
			URL:            strings.TrimSpace(h.URL),
			Text:           truncate(clean(h.Text), r.maxChars),
			PublishedDate:  h.PublishedDate,
			RelevanceScore: h.Score,
		})
	}
	return out
}

// scoreOf orders unscored hits after scored ones, keeping their position.
func scoreOf(h Hit) float64 {
	if h.Score == nil {
		return -1
	}
	return *h.Score
}
