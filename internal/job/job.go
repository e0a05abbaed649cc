// Package job defines the unit of work exchanged between the ingress and the
// retrieval workers through the broker.
package job

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ContentType is the content type of published job messages.
const ContentType = "application/json"

// ErrMalformedJob is returned when a message body is not a usable Job.
var ErrMalformedJob = errors.New("malformed job message")

// Job is one URL retrieval with its remaining attempt budget.
type Job struct {
	URL               string `json:"url"`
	AttemptsRemaining int    `json:"attemptsRemaining"`
}

// New returns a fresh job carrying the full attempt budget.
func New(url string, maxAttempts int) Job {
	return Job{URL: url, AttemptsRemaining: maxAttempts}
}

// Next returns the job to republish after a failed attempt.
func (j Job) Next() Job {
	return Job{URL: j.URL, AttemptsRemaining: j.AttemptsRemaining - 1}
}

// CanRetry reports whether a failed attempt may be requeued.
func (j Job) CanRetry() bool {
	return j.AttemptsRemaining > 1
}

// Marshal encodes the job as a broker message body.
func (j Job) Marshal() ([]byte, error) {
	body, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	return body, nil
}

// Parse decodes a broker message body. The url field must be present; its
// value is not checked here, an unusable URL fails when it is fetched.
func Parse(body []byte) (Job, error) {
	var wire struct {
		URL               *string `json:"url"`
		AttemptsRemaining int     `json:"attemptsRemaining"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if wire.URL == nil {
		return Job{}, fmt.Errorf("%w: url is missing", ErrMalformedJob)
	}
	return Job{URL: *wire.URL, AttemptsRemaining: wire.AttemptsRemaining}, nil
}
