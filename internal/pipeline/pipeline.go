// Package pipeline is the entry point for catalog generation: discovery of new
// candidate entries and enrichment of known ones.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/versus-cli/internal/evidence"
	"github.com/sells-group/versus-cli/internal/fallback"
	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/provider"
	"github.com/sells-group/versus-cli/internal/resilience"
	"github.com/sells-group/versus-cli/internal/validate"
)

// EntryInput identifies the entry to enrich.
type EntryInput struct {
	Title    string `json:"title"`
	Question string `json:"question"`
	VariantA string `json:"variantA"`
	VariantB string `json:"variantB"`
}

// EntryInputFrom builds an EntryInput from a candidate record.
func EntryInputFrom(rec model.CandidateRecord) EntryInput {
	return EntryInput{Title: rec.Title, Question: rec.Question, VariantA: rec.VariantA, VariantB: rec.VariantB}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver registers a hook called on every state transition.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithRetriever enables evidence retrieval for enrichment.
func WithRetriever(r *evidence.Retriever) Option {
	return func(p *Pipeline) {
		p.retriever = r
	}
}

// WithMaxExclusions overrides how many exclusion titles reach the prompt.
func WithMaxExclusions(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxExclusions = n
		}
	}
}

// Pipeline runs discovery and enrichment. It holds only read-only
// configuration, so concurrent calls share nothing mutable.
type Pipeline struct {
	stages        map[string][]provider.Adapter
	timeout       time.Duration
	retriever     *evidence.Retriever
	observer      Observer
	maxExclusions int
}

// New resolves every stage's provider list against reg. An unknown provider
// name is a configuration error.
func New(reg *provider.Registry, cfg *fallback.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = fallback.DefaultConfig()
	}
	p := &Pipeline{
		stages:        make(map[string][]provider.Adapter),
		timeout:       cfg.Timeout,
		maxExclusions: MaxExclusions,
	}
	for _, stage := range []string{
		fallback.StageDiscovery,
		fallback.StageStructuring,
		fallback.StageCombined,
		fallback.StageEnrichment,
	} {
		adapters, err := reg.Resolve(cfg.Providers(stage))
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: resolve %s stage", stage)
		}
		p.stages[stage] = adapters
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// tracker logs and reports the state transitions of one run.
type tracker struct {
	log      *zap.Logger
	observer Observer
	state    State
	entered  time.Time
}

func (p *Pipeline) track(op string) *tracker {
	t := &tracker{
		log:      zap.L().With(zap.String("op", op)),
		observer: p.observer,
		state:    StateIdle,
		entered:  time.Now(),
	}
	if t.observer != nil {
		t.observer(StateIdle)
	}
	return t
}

func (t *tracker) to(next State) {
	t.log.Debug("pipeline: transition",
		zap.String("from", string(t.state)),
		zap.String("to", string(next)),
		zap.Int64("ms_in_state", time.Since(t.entered).Milliseconds()),
	)
	t.state = next
	t.entered = time.Now()
	if t.observer != nil {
		t.observer(next)
	}
}

// Discover finds new catalog candidates that are not among exclusions.
//
// Discovery output is handed to the structuring stage. If structuring fails
// the raw discovery text is validated directly, and only then does the
// combined stage run, reusing the raw findings in its prompt.
func (p *Pipeline) Discover(ctx context.Context, exclusions []string) model.PipelineResult[[]model.CandidateRecord] {
	t := p.track("discover")
	run := fallback.NewRun()
	capped := capExclusions(exclusions, p.maxExclusions)

	accept := func(text string) ([]model.CandidateRecord, error) {
		records, err := validate.ParseCandidates(text)
		if err != nil {
			return nil, err
		}
		fresh := validate.Dedupe(records, exclusions)
		if len(fresh) == 0 {
			return nil, resilience.Failuref(resilience.KindNoValidRecords, "", "all %d candidates duplicate existing entries", len(records))
		}
		if dropped := len(records) - len(fresh); dropped > 0 {
			t.log.Info("pipeline: dropped duplicate candidates", zap.Int("dropped", dropped))
		}
		return fresh, nil
	}

	t.to(StateDiscovering)
	disc := fallback.RunStage(ctx, run, fallback.StageDiscovery, p.stages[fallback.StageDiscovery],
		discoveryRequest(capped), p.timeout, fallback.Text)
	if canceled(disc.Failure) {
		return fail[[]model.CandidateRecord](t, run, disc.Failure)
	}

	var raw string
	if disc.OK() {
		raw = disc.Text

		t.to(StateStructuring)
		st := fallback.RunStage(ctx, run, fallback.StageStructuring, p.stages[fallback.StageStructuring],
			structuringRequest(raw), p.timeout, accept)
		if st.OK() {
			return succeed(t, run, st.Provider, st.Value)
		}
		if canceled(st.Failure) {
			return fail[[]model.CandidateRecord](t, run, st.Failure)
		}

		if records, err := accept(raw); err == nil {
			t.log.Info("pipeline: structuring exhausted, discovery text validated directly",
				zap.String("provider", disc.Provider),
				zap.Int("records", len(records)),
			)
			return succeed(t, run, disc.Provider, records)
		}
		t.log.Warn("pipeline: structuring exhausted, trying combined stage",
			zap.String("detail", st.Failure.Detail()),
		)
	} else {
		t.log.Warn("pipeline: discovery exhausted, trying combined stage",
			zap.String("detail", disc.Failure.Detail()),
		)
		t.to(StateStructuring)
	}

	comb := fallback.RunStage(ctx, run, fallback.StageCombined, p.stages[fallback.StageCombined],
		combinedRequest(capped, raw), p.timeout, accept)
	if !comb.OK() {
		return fail[[]model.CandidateRecord](t, run, comb.Failure)
	}
	return succeed(t, run, comb.Provider, comb.Value)
}

// GenerateEnrichment writes supporting content for one entry, grounded on
// retrieved evidence when a retriever is configured. Retrieval failures only
// mean an ungrounded prompt.
func (p *Pipeline) GenerateEnrichment(ctx context.Context, in EntryInput) model.PipelineResult[model.EnrichmentRecord] {
	t := p.track("enrich")
	t.log = t.log.With(zap.String("title", in.Title))
	run := fallback.NewRun()

	t.to(StateRetrievingEvidence)
	var ev []model.SearchEvidence
	if p.retriever.Enabled() {
		res := p.retriever.Search(ctx, in.Title)
		ev = res.Evidence
		run.AddCost(res.CostUSD)
		t.log.Debug("pipeline: evidence retrieved",
			zap.String("backend", res.Backend),
			zap.Int("snippets", len(ev)),
		)
	}
	if err := ctx.Err(); err != nil {
		return fail[model.EnrichmentRecord](t, run, resilience.NewFailure(resilience.KindCanceled, "", err))
	}

	t.to(StateGenerating)
	accept := func(text string) (model.EnrichmentRecord, error) {
		return validate.ParseEnrichment(text, ev, strings.TrimSpace(in.Title))
	}
	gen := fallback.RunStage(ctx, run, fallback.StageEnrichment, p.stages[fallback.StageEnrichment],
		enrichmentRequest(in, ev), p.timeout, accept)
	if !gen.OK() {
		return fail[model.EnrichmentRecord](t, run, gen.Failure)
	}
	return succeed(t, run, gen.Provider, gen.Value)
}

func canceled(f *resilience.Failure) bool {
	return f != nil && f.Kind == resilience.KindCanceled
}

func succeed[T any](t *tracker, run *fallback.Run, providerUsed string, data T) model.PipelineResult[T] {
	t.to(StateValidated)
	res := model.PipelineResult[T]{
		Success:      true,
		Data:         data,
		ProviderUsed: providerUsed,
		Attempts:     run.Attempts(),
		CostUSD:      run.CostUSD(),
	}
	t.log.Info("pipeline: run succeeded",
		zap.String("provider", providerUsed),
		zap.Int("attempts", len(res.Attempts)),
		zap.Float64("cost_usd", res.CostUSD),
	)
	return res
}

func fail[T any](t *tracker, run *fallback.Run, f *resilience.Failure) model.PipelineResult[T] {
	t.to(StateFailed)
	res := model.PipelineResult[T]{
		Error:    string(f.Kind),
		Detail:   f.Detail(),
		Attempts: run.Attempts(),
		CostUSD:  run.CostUSD(),
	}
	t.log.Warn("pipeline: run failed",
		zap.String("error", res.Error),
		zap.String("detail", res.Detail),
		zap.Int("attempts", len(res.Attempts)),
	)
	return res
}
