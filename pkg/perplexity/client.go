// Package perplexity calls the search-grounded Perplexity chat API.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	defaultModel   = "sonar-pro"
)

// Client asks Perplexity one question at a time.
type Client interface {
	Ask(ctx context.Context, q Query) (*Answer, error)
}

// Query is a single-turn question.
type Query struct {
	// Model overrides the client's model for this call.
	Model     string
	System    string
	Prompt    string
	MaxTokens int
	// Schema, when set, requests JSON output conforming to it.
	Schema      any
	Temperature *float64
}

// Answer is the model's reply plus the sources it searched.
type Answer struct {
	ID        string
	Model     string
	Text      string
	Citations []string
	Usage     Usage
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// APIError is returned for any non-200 response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("perplexity: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the upstream status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string `json:"type"`
	JSONSchema struct {
		Schema any `json:"schema"`
	} `json:"json_schema"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage         Usage    `json:"usage"`
	Citations     []string `json:"citations"`
	SearchResults []struct {
		URL string `json:"url"`
	} `json:"search_results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *httpClient) { c.model = model }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewClient creates a Perplexity API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http:    &http.Client{Timeout: 90 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Ask(ctx context.Context, q Query) (*Answer, error) {
	body, err := json.Marshal(c.newRequest(q))
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, eris.Wrap(err, "perplexity: decode response")
	}
	return parsed.answer(), nil
}

func (c *httpClient) newRequest(q Query) chatRequest {
	req := chatRequest{
		Model:       q.Model,
		MaxTokens:   q.MaxTokens,
		Temperature: q.Temperature,
	}
	if req.Model == "" {
		req.Model = c.model
	}
	if q.System != "" {
		req.Messages = append(req.Messages, message{Role: "system", Content: q.System})
	}
	req.Messages = append(req.Messages, message{Role: "user", Content: q.Prompt})
	if q.Schema != nil {
		rf := &responseFormat{Type: "json_schema"}
		rf.JSONSchema.Schema = q.Schema
		req.ResponseFormat = rf
	}
	return req
}

// answer flattens the first choice. Newer responses list sources under
// search_results instead of citations.
func (r *chatResponse) answer() *Answer {
	a := &Answer{ID: r.ID, Model: r.Model, Usage: r.Usage, Citations: r.Citations}
	if len(r.Choices) > 0 {
		a.Text = r.Choices[0].Message.Content
	}
	if len(a.Citations) == 0 {
		for _, sr := range r.SearchResults {
			if sr.URL != "" {
				a.Citations = append(a.Citations, sr.URL)
			}
		}
	}
	return a
}
