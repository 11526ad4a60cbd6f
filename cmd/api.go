package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/versus-cli/internal/config"
	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/pipeline"
	"github.com/sells-group/versus-cli/internal/resilience"
	"github.com/sells-group/versus-cli/internal/store"
)

// generator is the pipeline surface the API drives.
type generator interface {
	Discover(ctx context.Context, exclusions []string) model.PipelineResult[[]model.CandidateRecord]
	GenerateEnrichment(ctx context.Context, in pipeline.EntryInput) model.PipelineResult[model.EnrichmentRecord]
}

type api struct {
	store store.Store
	gen   generator
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type discoverRequest struct {
	Save bool `json:"save"`
}

type discoverResponse struct {
	Result  model.PipelineResult[[]model.CandidateRecord] `json:"result"`
	Entries []model.Entry                                 `json:"entries,omitempty"`
}

type voteRequest struct {
	Side string `json:"side"`
}

// newRouter builds the HTTP API. Generation routes share one token bucket.
func newRouter(st store.Store, gen generator, sc config.ServerConfig) http.Handler {
	a := &api{store: st, gen: gen}
	limiter := rate.NewLimiter(rate.Limit(sc.GenerateRPS), sc.GenerateBurst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Type", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", a.health)

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/entries", a.listEntries)
		ar.Get("/entries/{id}", a.getEntry)
		ar.Post("/entries/{id}/vote", a.vote)

		ar.Group(func(gr chi.Router) {
			gr.Use(throttle(limiter))
			gr.Post("/discover", a.discover)
			gr.Post("/entries/{id}/enrich", a.enrich)
		})
	})

	return r
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer")
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "offset must be an integer")
		return
	}
	missing := q.Get("missing_enrichment") == "true"

	filter, err := entryFilter(q.Get("category"), missing, limit, offset)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	entries, err := a.store.ListEntries(r.Context(), filter)
	if err != nil {
		a.internalError(w, "list entries", err)
		return
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *api) getEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.loadEntry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *api) discover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	titles, err := a.store.Titles(r.Context(), 0)
	if err != nil {
		a.internalError(w, "load titles", err)
		return
	}

	res := a.gen.Discover(r.Context(), titles)
	resp := discoverResponse{Result: res}
	if !res.Success {
		writeJSON(w, resultStatus(res.Error, res.Attempts), resp)
		return
	}

	if req.Save {
		saved, err := a.store.SaveCandidates(r.Context(), res.Data)
		if err != nil {
			a.internalError(w, "save candidates", err)
			return
		}
		resp.Entries = saved
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) enrich(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.loadEntry(w, r)
	if !ok {
		return
	}

	res := a.gen.GenerateEnrichment(r.Context(), pipeline.EntryInputFrom(entry.CandidateRecord))
	if !res.Success {
		writeJSON(w, resultStatus(res.Error, res.Attempts), res)
		return
	}

	if err := a.store.SaveEnrichment(r.Context(), entry.ID, res.Data); err != nil {
		a.internalError(w, "save enrichment", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	tally, err := a.store.RecordVote(r.Context(), id, side)
	if err != nil {
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", "entry not found")
			return
		}
		a.internalError(w, "record vote", err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

// loadEntry fetches the {id} entry, writing a 404 or 500 on failure.
func (a *api) loadEntry(w http.ResponseWriter, r *http.Request) (*model.Entry, bool) {
	entry, err := a.store.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", "entry not found")
			return nil, false
		}
		a.internalError(w, "get entry", err)
		return nil, false
	}
	return entry, true
}

func (a *api) internalError(w http.ResponseWriter, op string, err error) {
	zap.L().Error("api: "+op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

// resultStatus maps a failed pipeline result to a status code. A run where
// no provider had credentials is 503 rather than an upstream failure.
func resultStatus(kind string, attempts []model.Attempt) int {
	switch resilience.ErrorKind(kind) {
	case resilience.KindCanceled:
		return 499
	case resilience.KindUnconfigured:
		return http.StatusServiceUnavailable
	}
	if len(attempts) == 0 {
		return http.StatusBadGateway
	}
	for _, at := range attempts {
		if at.Outcome != string(resilience.KindUnconfigured) {
			return http.StatusBadGateway
		}
	}
	return http.StatusServiceUnavailable
}

// throttle rejects requests once the shared limiter is exhausted.
func throttle(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter(l)))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many generation requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfter estimates whole seconds until the next token.
func retryAfter(l *rate.Limiter) int {
	if l.Limit() <= 0 {
		return 60
	}
	return max(int(math.Ceil(1/float64(l.Limit()))), 1)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// decodeJSON decodes a single JSON object. An empty body leaves target zero.
func decodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
