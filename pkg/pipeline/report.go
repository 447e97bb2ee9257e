package pipeline

import (
	"fmt"
	"time"

	"github.com/opencivic/meetingfeed/pkg/errors"
)

// FailureKind classifies an agency-level failure.
type FailureKind string

// Agency failure kinds.
const (
	// FailureExtractor marks a transient remote-source fault; the
	// agency is retried on the next scheduled run, not within-run.
	FailureExtractor FailureKind = "EXTRACTOR_FAILED"
	// FailureTimeout marks an extractor abandoned at the run deadline.
	FailureTimeout FailureKind = "EXTRACTOR_TIMEOUT"
)

// CrawlReport is the per-agency outcome of one orchestrator pass.
// Created fresh each run; not persisted beyond the run's lifetime
// except as a log artifact.
type CrawlReport struct {
	AgencyID string `json:"agency_id" yaml:"agency_id"`

	// Observed counts raw observations the extractor produced.
	Observed int `json:"observed" yaml:"observed"`
	// Normalized counts observations that passed normalization.
	Normalized int `json:"normalized" yaml:"normalized"`
	// New, Updated, and Unchanged count upsert outcomes.
	New       int `json:"new" yaml:"new"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`

	// Rejected counts dropped observations by rejection reason.
	Rejected map[errors.RejectReason]int `json:"rejected,omitempty" yaml:"rejected,omitempty"`

	// Failure and FailureCause are set when the extractor itself failed.
	Failure      FailureKind `json:"failure,omitempty" yaml:"failure,omitempty"`
	FailureCause string      `json:"failure_cause,omitempty" yaml:"failure_cause,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Succeeded reports whether the agency's extractor ran to completion.
func (r *CrawlReport) Succeeded() bool {
	return r.Failure == ""
}

// RejectedTotal returns the total count of dropped observations.
func (r *CrawlReport) RejectedTotal() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

// reject counts one dropped observation.
func (r *CrawlReport) reject(reason errors.RejectReason) {
	if r.Rejected == nil {
		r.Rejected = make(map[errors.RejectReason]int)
	}
	r.Rejected[reason]++
}

// Summary returns a one-line human-readable report.
func (r *CrawlReport) Summary() string {
	if !r.Succeeded() {
		return fmt.Sprintf("%s: %s (%s)", r.AgencyID, r.Failure, r.FailureCause)
	}
	return fmt.Sprintf("%s: %d observed, %d new, %d updated, %d unchanged, %d rejected",
		r.AgencyID, r.Observed, r.New, r.Updated, r.Unchanged, r.RejectedTotal())
}

// RunReport aggregates the per-agency reports of one orchestrator pass.
type RunReport struct {
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	// Agencies holds one report per agency, ordered by agency ID.
	Agencies []CrawlReport `json:"agencies" yaml:"agencies"`
}

// Failed returns the reports of agencies whose extractors failed.
func (r *RunReport) Failed() []CrawlReport {
	var out []CrawlReport
	for _, a := range r.Agencies {
		if !a.Succeeded() {
			out = append(out, a)
		}
	}
	return out
}

// Totals sums outcome counts across agencies.
func (r *RunReport) Totals() (observed, added, updated, unchanged, rejected int) {
	for _, a := range r.Agencies {
		observed += a.Observed
		added += a.New
		updated += a.Updated
		unchanged += a.Unchanged
		rejected += a.RejectedTotal()
	}
	return
}
