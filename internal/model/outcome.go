package model

import "time"

// OutcomeStatus describes how a single contact attempt ended.
type OutcomeStatus string

const (
	// OutcomeSucceeded means a draft was created and the contact marked.
	OutcomeSucceeded OutcomeStatus = "succeeded"
	// OutcomeFailed means the attempt failed; whether the contact was
	// marked depends on the failure classification.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomeSkipped means the contact was already marked contacted.
	OutcomeSkipped OutcomeStatus = "skipped"
	// OutcomeCancelled means the run was cancelled mid-attempt; the
	// contact was left unmarked for a future run.
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// Outcome is the per-contact processing result the orchestrator
// aggregates into batch totals.
type Outcome struct {
	Email   string        `json:"email"`
	Website string        `json:"website,omitempty"`
	Status  OutcomeStatus `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	Err     string        `json:"error,omitempty"`
	// Token carries the bearer token after processing; it differs from
	// the input token when the dispatcher refreshed mid-call.
	Token string `json:"-"`
}

// Failure is one entry of the per-contact error log in a Summary.
type Failure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// Summary holds the aggregate counts for a whole run.
type Summary struct {
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Add folds a single outcome into the summary.
func (s *Summary) Add(o Outcome) {
	s.Processed++
	switch o.Status {
	case OutcomeSucceeded:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
		s.Succeeded++
	default:
		s.Failed++
		if o.Err != "" {
			s.Failures = append(s.Failures, Failure{Email: o.Email, Reason: o.Err})
		}
	}
}
