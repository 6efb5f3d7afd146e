package sync

import "errors"

var (
	// ErrRateLimitExceeded is returned when the per-tenant request budget is
	// exhausted and bounded backoff did not recover a slot
	ErrRateLimitExceeded = errors.New("xero rate limit exceeded")

	// ErrTransientFetch marks a retryable transport or 5xx failure
	ErrTransientFetch = errors.New("transient fetch error")

	// ErrNonRetryableFetch marks a 4xx (non-429) response; it aborts only the
	// current entity type for the run
	ErrNonRetryableFetch = errors.New("non-retryable fetch error")

	// ErrCheckpointPersist is returned when a checkpoint write fails; fatal
	// to the current entity type, the session continues for others
	ErrCheckpointPersist = errors.New("checkpoint persist failed")

	// ErrSessionTimeout is recorded against the in-progress entity when the
	// session's overall time budget is exceeded
	ErrSessionTimeout = errors.New("sync session timed out")
)
