package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/versus-cli/internal/config"
	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/pipeline"
	"github.com/sells-group/versus-cli/internal/store"
)

type fakeGenerator struct {
	discoverResult model.PipelineResult[[]model.CandidateRecord]
	enrichResult   model.PipelineResult[model.EnrichmentRecord]

	exclusions [][]string
	inputs     []pipeline.EntryInput
}

func (f *fakeGenerator) Discover(_ context.Context, exclusions []string) model.PipelineResult[[]model.CandidateRecord] {
	f.exclusions = append(f.exclusions, exclusions)
	return f.discoverResult
}

func (f *fakeGenerator) GenerateEnrichment(_ context.Context, in pipeline.EntryInput) model.PipelineResult[model.EnrichmentRecord] {
	f.inputs = append(f.inputs, in)
	return f.enrichResult
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		AllowedOrigins: []string{"*"},
		GenerateRPS:    100,
		GenerateBurst:  100,
	}
}

func newTestAPI(t *testing.T, gen generator, sc config.ServerConfig) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return newRouter(st, gen, sc), st
}

func seedEntry(t *testing.T, st store.Store, title string) model.Entry {
	t.Helper()
	saved, err := st.SaveCandidates(context.Background(), []model.CandidateRecord{{
		Title:    title,
		Question: title + "?",
		VariantA: "Yes",
		VariantB: "No",
		Category: model.CategoryTechnology,
	}})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	return saved[0]
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAPI_Health(t *testing.T) {
	h, _ := newTestAPI(t, &fakeGenerator{}, testServerConfig())

	rr := do(h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_CORS(t *testing.T) {
	h, _ := newTestAPI(t, &fakeGenerator{}, testServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_ListEntries(t *testing.T) {
	h, st := newTestAPI(t, &fakeGenerator{}, testServerConfig())

	rr := do(h, http.MethodGet, "/api/entries", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	seedEntry(t, st, "Vim vs Emacs")

	rr = do(h, http.MethodGet, "/api/entries?category=technology&limit=10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []model.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Vim vs Emacs", entries[0].Title)

	rr = do(h, http.MethodGet, "/api/entries?category=sports", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestAPI_ListEntries_BadParams(t *testing.T) {
	h, _ := newTestAPI(t, &fakeGenerator{}, testServerConfig())

	for _, path := range []string{
		"/api/entries?limit=ten",
		"/api/entries?offset=x",
		"/api/entries?offset=-1",
		"/api/entries?category=cooking",
	} {
		rr := do(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestAPI_GetEntry(t *testing.T) {
	h, st := newTestAPI(t, &fakeGenerator{}, testServerConfig())
	e := seedEntry(t, st, "Tabs vs Spaces")

	rr := do(h, http.MethodGet, "/api/entries/"+e.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got model.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "Tabs vs Spaces", got.Title)

	rr = do(h, http.MethodGet, "/api/entries/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_found")
}

func TestAPI_Vote(t *testing.T) {
	h, st := newTestAPI(t, &fakeGenerator{}, testServerConfig())
	e := seedEntry(t, st, "Cats vs Dogs")
	path := "/api/entries/" + e.ID + "/vote"

	rr := do(h, http.MethodPost, path, `{"side":"a"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"votesA":1,"votesB":0}`, rr.Body.String())

	rr = do(h, http.MethodPost, path, `{"side":"B"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"votesA":1,"votesB":1}`, rr.Body.String())

	rr = do(h, http.MethodPost, path, `{"side":"c"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, http.MethodPost, path, `{"side":"a","extra":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, http.MethodPost, "/api/entries/missing/vote", `{"side":"a"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_Discover_Save(t *testing.T) {
	gen := &fakeGenerator{discoverResult: model.PipelineResult[[]model.CandidateRecord]{
		Success:      true,
		ProviderUsed: "anthropic",
		Data: []model.CandidateRecord{
			{Title: "Pineapple on Pizza", Question: "Does it belong?", VariantA: "Yes", VariantB: "No", Category: model.CategoryFood},
			{Title: "Books vs Films", Question: "Which is better?", VariantA: "Books", VariantB: "Films", Category: model.CategoryBooks},
		},
	}}
	h, st := newTestAPI(t, gen, testServerConfig())
	seedEntry(t, st, "Existing Topic")

	rr := do(h, http.MethodPost, "/api/discover", `{"save":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp discoverResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Result.Success)
	assert.Equal(t, "anthropic", resp.Result.ProviderUsed)
	require.Len(t, resp.Entries, 2)
	assert.NotEmpty(t, resp.Entries[0].ID)

	require.Len(t, gen.exclusions, 1)
	assert.Equal(t, []string{"Existing Topic"}, gen.exclusions[0])

	titles, err := st.Titles(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, titles, 3)
}

func TestAPI_Discover_NoSave(t *testing.T) {
	gen := &fakeGenerator{discoverResult: model.PipelineResult[[]model.CandidateRecord]{
		Success: true,
		Data:    []model.CandidateRecord{{Title: "A vs B", VariantA: "A", VariantB: "B", Category: model.CategoryOther}},
	}}
	h, st := newTestAPI(t, gen, testServerConfig())

	rr := do(h, http.MethodPost, "/api/discover", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp discoverResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Entries)

	titles, err := st.Titles(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestAPI_Discover_Failure(t *testing.T) {
	gen := &fakeGenerator{discoverResult: model.PipelineResult[[]model.CandidateRecord]{
		Error:  "all_providers_exhausted",
		Detail: "openrouter-online: no credential configured",
	}}
	h, _ := newTestAPI(t, gen, testServerConfig())

	rr := do(h, http.MethodPost, "/api/discover", `{}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)

	var resp discoverResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Result.Success)
	assert.Equal(t, "all_providers_exhausted", resp.Result.Error)
}

func TestAPI_Discover_BadBody(t *testing.T) {
	h, _ := newTestAPI(t, &fakeGenerator{}, testServerConfig())

	rr := do(h, http.MethodPost, "/api/discover", `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_Enrich(t *testing.T) {
	gen := &fakeGenerator{enrichResult: model.PipelineResult[model.EnrichmentRecord]{
		Success:      true,
		ProviderUsed: "openrouter",
		Data: model.EnrichmentRecord{
			CurrentState:          "Both are widely used.",
			CurrentStateSource:    "https://example.com/a",
			CounterEvidenceSource: "https://example.com/b",
		},
	}}
	h, st := newTestAPI(t, gen, testServerConfig())
	e := seedEntry(t, st, "Light vs Dark Mode")

	rr := do(h, http.MethodPost, "/api/entries/"+e.ID+"/enrich", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	require.Len(t, gen.inputs, 1)
	assert.Equal(t, "Light vs Dark Mode", gen.inputs[0].Title)
	assert.Equal(t, "Yes", gen.inputs[0].VariantA)

	got, err := st.GetEntry(context.Background(), e.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Enrichment)
	assert.Equal(t, "Both are widely used.", got.Enrichment.CurrentState)
}

func TestAPI_Enrich_Failure(t *testing.T) {
	gen := &fakeGenerator{enrichResult: model.PipelineResult[model.EnrichmentRecord]{
		Error: "all_providers_exhausted",
	}}
	h, st := newTestAPI(t, gen, testServerConfig())
	e := seedEntry(t, st, "Coffee vs Tea")

	rr := do(h, http.MethodPost, "/api/entries/"+e.ID+"/enrich", "")
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	got, err := st.GetEntry(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Enrichment)
}

func TestAPI_Enrich_NotFound(t *testing.T) {
	gen := &fakeGenerator{}
	h, _ := newTestAPI(t, gen, testServerConfig())

	rr := do(h, http.MethodPost, "/api/entries/missing/enrich", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, gen.inputs)
}

func TestAPI_GenerationThrottled(t *testing.T) {
	gen := &fakeGenerator{discoverResult: model.PipelineResult[[]model.CandidateRecord]{Success: true}}
	sc := testServerConfig()
	sc.GenerateRPS = 0.5
	sc.GenerateBurst = 1
	h, st := newTestAPI(t, gen, sc)
	e := seedEntry(t, st, "Mac vs PC")

	rr := do(h, http.MethodPost, "/api/discover", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(h, http.MethodPost, "/api/discover", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "rate_limited")
	assert.Len(t, gen.exclusions, 1)

	// Reads and votes are not throttled.
	rr = do(h, http.MethodGet, "/api/entries/"+e.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = do(h, http.MethodPost, "/api/entries/"+e.ID+"/vote", `{"side":"a"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestResultStatus(t *testing.T) {
	unconfigured := []model.Attempt{
		{Stage: "discovery", Provider: "perplexity", Outcome: "unconfigured"},
		{Stage: "combined", Provider: "openrouter-online", Outcome: "unconfigured"},
	}
	mixed := append([]model.Attempt{{Stage: "discovery", Provider: "anthropic", Outcome: "transient"}}, unconfigured...)

	assert.Equal(t, 499, resultStatus("canceled", unconfigured))
	assert.Equal(t, http.StatusServiceUnavailable, resultStatus("unconfigured", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resultStatus("all_providers_exhausted", unconfigured))
	assert.Equal(t, http.StatusBadGateway, resultStatus("all_providers_exhausted", mixed))
	assert.Equal(t, http.StatusBadGateway, resultStatus("all_providers_exhausted", nil))
	assert.Equal(t, http.StatusBadGateway, resultStatus("no_valid_records", nil))
}

func TestAPI_NoCredentialsIsUnavailable(t *testing.T) {
	p, err := buildPipeline(testConfig())
	require.NoError(t, err)
	h, st := newTestAPI(t, p, testServerConfig())
	e := seedEntry(t, st, "Vim vs Emacs")

	rr := do(h, http.MethodPost, "/api/discover", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "all_providers_exhausted")

	rr = do(h, http.MethodPost, "/api/entries/"+e.ID+"/enrich", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
