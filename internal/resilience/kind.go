package resilience

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy of pipeline failures.
type ErrorKind string

const (
	KindUnconfigured          ErrorKind = "unconfigured"
	KindRateLimited           ErrorKind = "rate_limited"
	KindTransient             ErrorKind = "transient"
	KindEmptyResponse         ErrorKind = "empty_response"
	KindInvalidResponse       ErrorKind = "invalid_response"
	KindNoValidRecords        ErrorKind = "no_valid_records"
	KindAllProvidersExhausted ErrorKind = "all_providers_exhausted"
	KindCanceled              ErrorKind = "canceled"
)

// Failure is a classified failure. Provider is empty for failures that are not
// attributable to a single adapter.
type Failure struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

// NewFailure builds a Failure of the given kind.
func NewFailure(kind ErrorKind, provider string, err error) *Failure {
	return &Failure{Kind: kind, Provider: provider, Err: err}
}

// Failuref builds a Failure with a formatted detail message.
func Failuref(kind ErrorKind, provider, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Provider: provider, Err: fmt.Errorf(format, args...)}
}

func (f *Failure) Error() string {
	prefix := string(f.Kind)
	if f.Provider != "" {
		prefix = f.Provider + ": " + prefix
	}
	if f.Err == nil {
		return prefix
	}
	return prefix + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Detail returns the most concrete message available: the innermost Failure's
// underlying error text, or the kind when there is none.
func (f *Failure) Detail() string {
	inner := f
	for {
		var next *Failure
		if inner.Err == nil || !errors.As(inner.Err, &next) {
			break
		}
		inner = next
	}
	if inner.Err == nil {
		return string(inner.Kind)
	}
	if inner.Provider != "" {
		return inner.Provider + ": " + inner.Err.Error()
	}
	return inner.Err.Error()
}

// KindOf returns the kind of the outermost Failure in err's chain, or "" if
// err carries none.
func KindOf(err error) ErrorKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// ClassifyStatus maps a non-2xx HTTP status onto the taxonomy.
func ClassifyStatus(statusCode int) ErrorKind {
	if IsRateLimitStatus(statusCode) {
		return KindRateLimited
	}
	return KindTransient
}

// Classify turns an adapter call error into a Failure. Errors that carry an
// HTTP status are classified by status; cancellation of the caller's context
// is KindCanceled; everything else (timeouts, resets, DNS) is KindTransient.
func Classify(provider string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if code, ok := StatusCode(err); ok {
		return NewFailure(ClassifyStatus(code), provider, err)
	}
	if errors.Is(err, context.Canceled) {
		return NewFailure(KindCanceled, provider, err)
	}
	return NewFailure(KindTransient, provider, err)
}
