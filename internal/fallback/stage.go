package fallback

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/versus-cli/internal/provider"
	"github.com/sells-group/versus-cli/internal/resilience"
)

// Acceptor converts a provider's raw text into the stage's value. A non-nil
// error rejects the response and the stage moves on to the next provider.
type Acceptor[T any] func(text string) (T, error)

// Text accepts any non-empty response as-is.
func Text(text string) (string, error) {
	return text, nil
}

// StageResult is the outcome of one stage. Failure is nil on success.
type StageResult[T any] struct {
	Value     T
	Provider  string
	Text      string
	Citations []string
	Failure   *resilience.Failure
}

// OK reports whether some provider in the stage succeeded.
func (s StageResult[T]) OK() bool {
	return s.Failure == nil
}

// RunStage tries adapters in order and returns the first response accept
// takes. Unconfigured adapters are passed over without a call, adapters rate
// limited earlier in run are skipped, and each call is bounded by timeout.
// Cancellation of ctx ends the stage immediately with KindCanceled.
func RunStage[T any](
	ctx context.Context,
	run *Run,
	stage string,
	adapters []provider.Adapter,
	req provider.Request,
	timeout time.Duration,
	accept Acceptor[T],
) StageResult[T] {
	var res StageResult[T]
	var last *resilience.Failure

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	for _, a := range adapters {
		if err := ctx.Err(); err != nil {
			res.Failure = resilience.NewFailure(resilience.KindCanceled, "", err)
			return res
		}

		name := a.Name()
		if run.Limited(name) {
			zap.L().Info("fallback: skipping rate-limited provider",
				zap.String("stage", stage),
				zap.String("provider", name),
			)
			run.recordSkip(stage, name)
			continue
		}

		if !a.Configured() {
			out := provider.Outcome{
				Provider: name,
				Failure:  resilience.Failuref(resilience.KindUnconfigured, name, "no credential configured"),
			}
			run.record(stage, out, 0)
			zap.L().Debug("fallback: provider not configured",
				zap.String("stage", stage),
				zap.String("provider", name),
			)
			last = out.Failure
			continue
		}

		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		out := a.Invoke(callCtx, req)
		callErr := callCtx.Err()
		cancel()
		elapsed := time.Since(start)

		if out.Provider == "" {
			out.Provider = name
		}

		if err := ctx.Err(); err != nil {
			out.Failure = resilience.NewFailure(resilience.KindCanceled, name, err)
			out.Text = ""
			run.record(stage, out, elapsed)
			res.Failure = out.Failure
			return res
		}

		if out.Failure == nil {
			value, err := accept(out.Text)
			if err == nil {
				run.record(stage, out, elapsed)
				zap.L().Info("fallback: stage succeeded",
					zap.String("stage", stage),
					zap.String("provider", name),
					zap.Duration("elapsed", elapsed),
				)
				res.Value = value
				res.Provider = name
				res.Text = out.Text
				res.Citations = out.Citations
				return res
			}
			out.Failure = rejection(name, err)
		} else if errors.Is(callErr, context.DeadlineExceeded) || out.Failure.Kind == resilience.KindCanceled {
			// The per-call deadline fired while the run itself is still live.
			out.Failure = resilience.NewFailure(resilience.KindTransient, name, out.Failure.Err)
		}

		run.record(stage, out, elapsed)
		last = out.Failure

		if out.Failure.Kind == resilience.KindRateLimited {
			run.markLimited(name)
			zap.L().Warn("fallback: provider rate limited, skipping for rest of run",
				zap.String("stage", stage),
				zap.String("provider", name),
				zap.Error(out.Failure),
			)
			continue
		}
		zap.L().Warn("fallback: provider failed, trying next",
			zap.String("stage", stage),
			zap.String("provider", name),
			zap.String("kind", string(out.Failure.Kind)),
			zap.Error(out.Failure),
		)
	}

	if last == nil {
		last = resilience.Failuref(resilience.KindAllProvidersExhausted, "", "stage %s has no usable providers", stage)
		res.Failure = last
		return res
	}
	res.Failure = resilience.NewFailure(resilience.KindAllProvidersExhausted, "", last)
	return res
}

// rejection classifies an Acceptor error, attributing it to the provider.
func rejection(name string, err error) *resilience.Failure {
	var f *resilience.Failure
	if errors.As(err, &f) {
		return resilience.NewFailure(f.Kind, name, f.Err)
	}
	return resilience.NewFailure(resilience.KindInvalidResponse, name, err)
}
