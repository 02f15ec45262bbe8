package port

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned by Repository.Create when the external id is
// already taken. Duplicate ids never silently overwrite.
var ErrDuplicateID = errors.New("duplicate id")

// ErrBootstrapInProgress is returned when a second bootstrap is attempted
// while one is mid-flight.
var ErrBootstrapInProgress = errors.New("initialization already in progress")

// SyncConflictError rejects a sync request whose scope guard is already
// held. Scope names the conflicting guard key(s).
type SyncConflictError struct {
	Scope string
}

func (e *SyncConflictError) Error() string {
	return fmt.Sprintf("sync already in progress for %s", e.Scope)
}

// UpstreamCategory is the client-facing classification of an upstream API
// failure. Internal detail never leaks past this category.
type UpstreamCategory string

const (
	UpstreamAuth        UpstreamCategory = "auth-failed"
	UpstreamRateLimited UpstreamCategory = "rate-limited"
	UpstreamTimeout     UpstreamCategory = "timeout"
	UpstreamUnavailable UpstreamCategory = "unavailable"
)

// UpstreamError wraps a failed upstream API call with its category and,
// when applicable, the HTTP status received.
type UpstreamError struct {
	Category UpstreamCategory
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("upstream %s (status %d)", e.Category, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
