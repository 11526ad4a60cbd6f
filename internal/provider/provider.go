// Package provider wraps generative services behind a uniform, classified
// call interface.
package provider

import (
	"context"
	"strings"

	"github.com/sells-group/versus-cli/internal/resilience"
)

// Request is one generation call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int64
}

// Usage reports what a call consumed.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Outcome is the result of one adapter invocation: either Text or Failure is
// set, never both.
type Outcome struct {
	Provider  string
	Text      string
	Citations []string
	Usage     Usage
	Failure   *resilience.Failure
}

// OK reports whether the invocation succeeded.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Adapter binds one external service and credential.
type Adapter interface {
	Name() string
	// Configured reports whether a credential is present. Unconfigured
	// adapters fail without I/O.
	Configured() bool
	Invoke(ctx context.Context, req Request) Outcome
}

const defaultMaxTokens = 4096

func maxTokens(req Request) int64 {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

func unconfigured(name string) Outcome {
	return Outcome{
		Provider: name,
		Failure:  resilience.Failuref(resilience.KindUnconfigured, name, "no credential configured"),
	}
}

// finish turns a call result into an Outcome.
func finish(name string, text string, usage Usage, err error) Outcome {
	if err != nil {
		return Outcome{Provider: name, Usage: usage, Failure: resilience.Classify(name, err)}
	}
	if strings.TrimSpace(text) == "" {
		return Outcome{
			Provider: name,
			Usage:    usage,
			Failure:  resilience.Failuref(resilience.KindEmptyResponse, name, "response has no text content"),
		}
	}
	return Outcome{Provider: name, Text: text, Usage: usage}
}
