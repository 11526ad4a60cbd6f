package evidence

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/versus-cli/pkg/exa"
	"github.com/sells-group/versus-cli/pkg/google"
	"github.com/sells-group/versus-cli/pkg/jina"
)

// Hit is one raw search result before filtering.
type Hit struct {
	Title         string
	URL           string
	Text          string
	PublishedDate *time.Time
	Score         *float64
}

// Backend is one external search index.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string) ([]Hit, error)
}

// ExaBackend searches Exa. Exa is the only backend that reports relevance
// scores and publication dates.
type ExaBackend struct {
	client     exa.Client
	numResults int
	exclude    []string
}

// NewExaBackend creates an Exa backend. Blocked domains are also passed
// upstream as excludeDomains.
func NewExaBackend(client exa.Client, numResults int, exclude []string) *ExaBackend {
	if numResults <= 0 {
		numResults = 10
	}
	return &ExaBackend{client: client, numResults: numResults, exclude: exclude}
}

// Name implements Backend.
func (b *ExaBackend) Name() string { return "exa" }

// Search implements Backend.
func (b *ExaBackend) Search(ctx context.Context, query string) ([]Hit, error) {
	resp, err := b.client.Search(ctx, exa.SearchRequest{
		Query:          query,
		NumResults:     b.numResults,
		ExcludeDomains: b.exclude,
		Contents:       &exa.Contents{Text: &exa.TextOptions{MaxCharacters: 2000}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "evidence: exa search")
	}
	hits := make([]Hit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, Hit{
			Title:         r.Title,
			URL:           r.URL,
			Text:          r.Text,
			PublishedDate: r.Published(),
			Score:         r.Score,
		})
	}
	return hits, nil
}

// JinaBackend searches Jina AI Search.
type JinaBackend struct {
	client jina.Client
	count  int
}

// NewJinaBackend creates a Jina backend requesting up to count results. A
// non-positive count keeps the service default.
func NewJinaBackend(client jina.Client, count int) *JinaBackend {
	return &JinaBackend{client: client, count: count}
}

// Name implements Backend.
func (b *JinaBackend) Name() string { return "jina" }

// Search implements Backend.
func (b *JinaBackend) Search(ctx context.Context, query string) ([]Hit, error) {
	results, err := b.client.Search(ctx, query, jina.WithCount(b.count))
	if err != nil {
		return nil, eris.Wrap(err, "evidence: jina search")
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{Title: r.Title, URL: r.URL, Text: r.Text(), PublishedDate: r.Published()})
	}
	return hits, nil
}

// GoogleBackend searches a Google Programmable Search engine.
type GoogleBackend struct {
	client google.Client
}

// NewGoogleBackend creates a Google backend.
func NewGoogleBackend(client google.Client) *GoogleBackend {
	return &GoogleBackend{client: client}
}

// Name implements Backend.
func (b *GoogleBackend) Name() string { return "google" }

// Search implements Backend.
func (b *GoogleBackend) Search(ctx context.Context, query string) ([]Hit, error) {
	resp, err := b.client.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "evidence: google search")
	}
	hits := make([]Hit, 0, len(resp.Items))
	for _, it := range resp.Items {
		hits = append(hits, Hit{Title: it.Title, URL: it.Link, Text: it.Snippet})
	}
	return hits, nil
}
