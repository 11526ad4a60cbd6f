package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/versus-cli/internal/cost"
	"github.com/sells-group/versus-cli/internal/resilience"
	"github.com/sells-group/versus-cli/pkg/openrouter"
	"github.com/sells-group/versus-cli/pkg/perplexity"
)

func chatServer(t *testing.T, status int, body string, inspect func(map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			inspect(req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUnconfiguredAdapters(t *testing.T) {
	t.Parallel()

	adapters := []Adapter{
		NewPerplexity("perplexity", nil, nil, false),
		NewAnthropic(nil, "", nil),
		NewOpenRouter("openrouter", nil, "m", false, nil),
	}
	for _, a := range adapters {
		assert.False(t, a.Configured(), a.Name())
		out := a.Invoke(context.Background(), Request{Prompt: "p"})
		require.False(t, out.OK(), a.Name())
		assert.Equal(t, resilience.KindUnconfigured, out.Failure.Kind, a.Name())
		assert.Equal(t, a.Name(), out.Provider)
	}
}

func TestPerplexity_Success(t *testing.T) {
	srv := chatServer(t, http.StatusOK,
		`{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"findings"}}],"usage":{"prompt_tokens":100,"completion_tokens":50},"citations":["https://src.example"]}`,
		func(req map[string]any) {
			msgs := req["messages"].([]any)
			require.Len(t, msgs, 2)
			assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
			assert.NotContains(t, req, "response_format")
		})

	calc := cost.NewCalculator(cost.Rates{Perplexity: cost.PerplexityRate{PerQuery: 0.01}})
	a := NewPerplexity("perplexity", perplexity.NewClient("k", perplexity.WithBaseURL(srv.URL)), calc, false)

	out := a.Invoke(context.Background(), Request{System: "sys", Prompt: "find"})
	require.True(t, out.OK())
	assert.Equal(t, "findings", out.Text)
	assert.Equal(t, []string{"https://src.example"}, out.Citations)
	assert.Equal(t, int64(100), out.Usage.InputTokens)
	assert.InDelta(t, 0.01, out.Usage.CostUSD, 1e-9)
}

func TestPerplexity_StructuredRequestsSchema(t *testing.T) {
	srv := chatServer(t, http.StatusOK,
		`{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"{\"candidates\":[]}"}}],"usage":{}}`,
		func(req map[string]any) {
			rf, ok := req["response_format"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "json_schema", rf["type"])
			msgs := req["messages"].([]any)
			assert.Len(t, msgs, 1)
		})

	a := NewPerplexity("perplexity-structured", perplexity.NewClient("k", perplexity.WithBaseURL(srv.URL)), nil, true)
	out := a.Invoke(context.Background(), Request{Prompt: "find and format"})
	require.True(t, out.OK())
	assert.Equal(t, "perplexity-structured", out.Provider)
}

func TestPerplexity_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   resilience.ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, resilience.KindRateLimited},
		{"quota", http.StatusPaymentRequired, `{}`, resilience.KindRateLimited},
		{"server error", http.StatusServiceUnavailable, `{}`, resilience.KindTransient},
		{"empty content", http.StatusOK, `{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"  "}}],"usage":{}}`, resilience.KindEmptyResponse},
		{"no choices", http.StatusOK, `{"id":"1","choices":[],"usage":{}}`, resilience.KindEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.body, nil)
			a := NewPerplexity("perplexity", perplexity.NewClient("k", perplexity.WithBaseURL(srv.URL)), nil, false)
			out := a.Invoke(context.Background(), Request{Prompt: "p"})
			require.False(t, out.OK())
			assert.Equal(t, tt.want, out.Failure.Kind)
			assert.Equal(t, "perplexity", out.Failure.Provider)
		})
	}
}

func TestPerplexity_TransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	a := NewPerplexity("perplexity", perplexity.NewClient("k", perplexity.WithBaseURL(url)), nil, false)
	out := a.Invoke(context.Background(), Request{Prompt: "p"})
	require.False(t, out.OK())
	assert.Equal(t, resilience.KindTransient, out.Failure.Kind)
}

func TestOpenRouter_OnlineModelAndCost(t *testing.T) {
	srv := chatServer(t, http.StatusOK,
		`{"id":"g","choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"cost":0.002}}`,
		func(req map[string]any) {
			assert.Equal(t, "openai/gpt-4o-mini:online", req["model"])
			assert.InDelta(t, 1000, req["max_tokens"], 0.1)
		})

	client := openrouter.NewClient("k", openrouter.WithBaseURL(srv.URL))
	a := NewOpenRouter("openrouter-online", client, "openai/gpt-4o-mini", true, cost.NewCalculator(cost.DefaultRates()))

	out := a.Invoke(context.Background(), Request{Prompt: "p", MaxTokens: 1000})
	require.True(t, out.OK())
	assert.Equal(t, "ok", out.Text)
	assert.InDelta(t, 0.002, out.Usage.CostUSD, 1e-9)
}

func TestOpenRouter_OnlineSuffixNotDoubled(t *testing.T) {
	t.Parallel()

	a := NewOpenRouter("openrouter-online", openrouter.NewClient("k"), "x/y:online", true, nil)
	assert.Equal(t, "x/y:online", a.model)
}

func TestOpenRouter_RateLimited(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, nil)
	a := NewOpenRouter("openrouter", openrouter.NewClient("k", openrouter.WithBaseURL(srv.URL)), "m", false, nil)

	out := a.Invoke(context.Background(), Request{Prompt: "p"})
	require.False(t, out.OK())
	assert.Equal(t, resilience.KindRateLimited, out.Failure.Kind)
	assert.Contains(t, out.Failure.Error(), "slow down")
}

func TestCandidateListSchema(t *testing.T) {
	t.Parallel()

	schema := CandidateListSchema()
	b, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"variantA"`)
	assert.Contains(t, string(b), `"other"`)
}
