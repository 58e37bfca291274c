package model

import "time"

// Dataset is the immutable per-run snapshot of canonical records. A new run
// fully supersedes the previous persisted file.
type Dataset struct {
	RunID   string
	Records []CanonicalRecord
}

// FailureReason classifies why a fund was dropped from a run.
type FailureReason string

const (
	FailFetchTransient FailureReason = "fetch_transient"
	FailFetchNotFound  FailureReason = "fetch_not_found"
	FailFetchBlocked   FailureReason = "fetch_blocked"
	FailParseMalformed FailureReason = "parse_malformed"
	FailInvariant      FailureReason = "invariant_violation"
	FailDuplicateID    FailureReason = "duplicate_identifier"
)

// FundFailure records one fund's terminal failure within a run.
type FundFailure struct {
	Fund   FundID        `json:"fund"`
	Reason FailureReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// RunSummary is the run-level report: what succeeded, what was skipped, why.
type RunSummary struct {
	RunID      string                `json:"run_id"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Universe   int                   `json:"universe"`
	Succeeded  int                   `json:"succeeded"`
	Failures   []FundFailure         `json:"failures,omitempty"`
	Counts     map[FailureReason]int `json:"counts,omitempty"`
	OutputPath string                `json:"output_path,omitempty"`
}

// Record adds one failure to the summary.
func (s *RunSummary) Record(f FundFailure) {
	s.Failures = append(s.Failures, f)
	if s.Counts == nil {
		s.Counts = make(map[FailureReason]int)
	}
	s.Counts[f.Reason]++
}

// Failed returns the number of funds dropped from the run.
func (s *RunSummary) Failed() int { return len(s.Failures) }

// RunStatus tracks a persisted run's lifecycle in the store.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is a persisted run-history row.
type Run struct {
	ID        string      `json:"id"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
