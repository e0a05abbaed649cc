package domain

// Attempt status values stored in the metadata record
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Outcome is the terminal state of one processing attempt.
type Outcome int

const (
	// OutcomeSucceeded means the document was stored.
	OutcomeSucceeded Outcome = iota + 1
	// OutcomeRequeued means the attempt failed and a follow-up job was published.
	OutcomeRequeued
	// OutcomeExhausted means the attempt failed and no budget was left.
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeRequeued:
		return "requeued"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}
