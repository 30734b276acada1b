package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the upstream has no such resource.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited is returned on HTTP 429 responses.
	ErrRateLimited = errors.New("rate limited by upstream")

	// ErrUpstreamDown is returned for network failures, 5xx responses, and
	// open circuit breakers.
	ErrUpstreamDown = errors.New("upstream unavailable")

	// ErrNoManifest is returned when a fetched archive contains no
	// recognizable manifest file.
	ErrNoManifest = errors.New("no manifest found in archive")
)

// UpstreamError attributes a failure to the source it came from.
type UpstreamError struct {
	Source string // registry base URL, repository reference, or raw URL
	Err    error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("fetching from %s: %v", e.Source, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }
