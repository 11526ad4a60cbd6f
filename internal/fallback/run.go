// Package fallback walks ordered provider lists, first success wins.
package fallback

import (
	"time"

	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/provider"
)

// OutcomeSkipped marks a provider passed over because it was rate limited
// earlier in the same run.
const OutcomeSkipped = "skipped"

// Run is the state of one pipeline run: providers that hit a rate limit and
// the attempts made so far. A Run belongs to a single invocation and is not
// safe for concurrent use.
type Run struct {
	limited  map[string]struct{}
	attempts []model.Attempt
	cost     float64
}

// NewRun starts an empty run.
func NewRun() *Run {
	return &Run{limited: make(map[string]struct{})}
}

// Limited reports whether name was rate limited earlier in this run.
func (r *Run) Limited(name string) bool {
	_, ok := r.limited[name]
	return ok
}

// Attempts returns a copy of the attempts trail.
func (r *Run) Attempts() []model.Attempt {
	out := make([]model.Attempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}

// CostUSD is the estimated spend of every attempt, failed ones included.
func (r *Run) CostUSD() float64 {
	return r.cost
}

// AddCost attributes spend that happened outside an adapter call.
func (r *Run) AddCost(usd float64) {
	r.cost += usd
}

func (r *Run) record(stage string, out provider.Outcome, elapsed time.Duration) {
	a := model.Attempt{
		Stage:      stage,
		Provider:   out.Provider,
		Outcome:    "success",
		DurationMs: elapsed.Milliseconds(),
		CostUSD:    out.Usage.CostUSD,
	}
	if out.Failure != nil {
		a.Outcome = string(out.Failure.Kind)
		if out.Failure.Err != nil {
			a.Error = out.Failure.Err.Error()
		}
	}
	r.attempts = append(r.attempts, a)
	r.cost += out.Usage.CostUSD
}

func (r *Run) recordSkip(stage, name string) {
	r.attempts = append(r.attempts, model.Attempt{
		Stage:    stage,
		Provider: name,
		Outcome:  OutcomeSkipped,
		Error:    "rate limited earlier in run",
	})
}

func (r *Run) markLimited(name string) {
	r.limited[name] = struct{}{}
}
