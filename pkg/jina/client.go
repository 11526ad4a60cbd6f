// Package jina is a small client for Jina AI Search (s.jina.ai).
package jina

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://s.jina.ai"

// Client runs web searches.
type Client interface {
	// Search returns the hits for query. A query with no hits yields an
	// empty slice and no error.
	Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error)
}

// Result is one search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

// Text is the page content, or the description when content is missing.
func (r Result) Text() string {
	if strings.TrimSpace(r.Content) != "" {
		return r.Content
	}
	return r.Description
}

// Published parses Date, returning nil when absent or not RFC 3339.
func (r Result) Published() *time.Time {
	if r.Date == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		return nil
	}
	return &t
}

type searchResponse struct {
	Code int      `json:"code"`
	Data []Result `json:"data"`
}

// SearchOption tunes a single search.
type SearchOption func(url.Values)

// WithCount asks for at most n hits.
func WithCount(n int) SearchOption {
	return func(q url.Values) {
		if n > 0 {
			q.Set("num", strconv.Itoa(n))
		}
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Jina AI Search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	reqURL := c.baseURL + "/" + url.PathEscape(query)
	q := url.Values{}
	for _, o := range opts {
		o(q)
	}
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "jina: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "jina: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "jina: read response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnprocessableEntity:
		// Jina answers 422 when nothing matched.
		return []Result{}, nil
	default:
		return nil, eris.Errorf("jina: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "jina: decode response")
	}
	if parsed.Data == nil {
		return []Result{}, nil
	}
	return parsed.Data, nil
}
