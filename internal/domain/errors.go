package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an absent catalog record. Callers translate it
	// into an empty result; it never escapes the engine as a failure.
	ErrNotFound = errors.New("not found")

	// ErrEmbedderUnavailable indicates the embedding backend cannot serve a
	// fresh embedding. Fatal for the current request.
	ErrEmbedderUnavailable = errors.New("embedding backend unavailable")

	// ErrCacheWrite indicates the recommendation cache transaction failed
	// and was rolled back. The previous cache content stays authoritative.
	ErrCacheWrite = errors.New("recommendation cache write failed")
)

// TransientError marks an ingestion failure worth retrying: rate limiting,
// connection resets, malformed partial output from the extractor.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient reports whether err is retryable.
func Transient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
