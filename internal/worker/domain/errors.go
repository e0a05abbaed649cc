package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentTooLarge is returned when a response body exceeds the configured limit
	ErrDocumentTooLarge = errors.New("document exceeds size limit")

	// ErrRequeueFailed is returned when a follow-up job could not be published.
	// The delivery must go back to the broker unacknowledged.
	ErrRequeueFailed = errors.New("failed to requeue job")
)

// FetchError wraps a failed download. StatusCode is 0 when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SaveError wraps a failed write to the storage sink
type SaveError struct {
	Destination string
	Name        string
	Err         error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s to %s: %v", e.Name, e.Destination, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
