// Package resilience classifies external-service failures into the pipeline's
// error taxonomy.
package resilience

import (
	"errors"
	"net/http"
)

// StatusError is implemented by client errors that carry the upstream HTTP
// status code.
type StatusError interface {
	error
	HTTPStatus() int
}

// StatusCode returns the HTTP status carried anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var se StatusError
	if errors.As(err, &se) {
		return se.HTTPStatus(), true
	}
	return 0, false
}

// IsRateLimitStatus reports whether the status signals rate limiting or quota
// exhaustion. Both skip the provider for the rest of a pipeline run.
func IsRateLimitStatus(statusCode int) bool {
	return statusCode == http.StatusPaymentRequired || statusCode == http.StatusTooManyRequests
}
