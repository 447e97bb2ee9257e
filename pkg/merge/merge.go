// Package merge reconciles a new normalized observation against the
// stored record with the same identity, applying field-level precedence
// rules and producing a revision. Merge conflicts are never surfaced as
// errors: precedence resolves them deterministically.
package merge

import (
	"time"

	"github.com/google/uuid"

	"github.com/opencivic/meetingfeed/pkg/errors"
	"github.com/opencivic/meetingfeed/pkg/meetings"
)

// Outcome classifies what an upsert did to a record.
type Outcome string

// Upsert outcomes.
const (
	// OutcomeNew means the identity had no record and one was created.
	OutcomeNew Outcome = "NEW"
	// OutcomeUpdated means a field actually changed and a revision was
	// appended.
	OutcomeUpdated Outcome = "UPDATED"
	// OutcomeUnchanged means the observation was a no-op duplicate and
	// no revision was minted.
	OutcomeUnchanged Outcome = "UNCHANGED"
)

// DefaultRescheduleTolerance is how far a start may drift between
// observations before the merge treats it as a genuine reschedule
// rather than a correction.
const DefaultRescheduleTolerance = 24 * time.Hour

// Engine applies observations to meeting records.
type Engine struct {
	tolerance time.Duration
}

// Option configures an Engine.
type Option func(*Engine) error

// WithRescheduleTolerance sets the start-drift tolerance beyond which a
// revision is forced to RESCHEDULED.
func WithRescheduleTolerance(d time.Duration) Option {
	return func(e *Engine) error {
		if d <= 0 {
			return errors.NewConfigError("merge", "reschedule tolerance must be positive", nil)
		}
		e.tolerance = d
		return nil
	}
}

// New creates a merge Engine with options.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{tolerance: DefaultRescheduleTolerance}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Apply reconciles an incoming meeting into the record. The record must
// already carry the same identity key (or be empty for a first-time
// identity). Revisions are append-only; the prior state is never
// overwritten in place.
func (e *Engine) Apply(record *meetings.MeetingRecord, incoming *meetings.Meeting) (Outcome, error) {
	if incoming == nil {
		return OutcomeUnchanged, errors.NewValidationError("meeting", nil, "incoming meeting cannot be nil")
	}
	if record.ID == "" {
		record.ID = incoming.ID
	}
	if record.ID != incoming.ID {
		return OutcomeUnchanged, errors.NewValidationError("id", incoming.ID, "identity key does not match record")
	}

	// First-time identity.
	if len(record.Revisions) == 0 {
		snapshot := incoming.Copy()
		record.Revisions = append(record.Revisions, meetings.Revision{
			ID:         uuid.NewString(),
			Meeting:    snapshot,
			ObservedAt: incoming.ObservedAt,
		})
		record.Current = snapshot.Copy()
		record.UpdatedAt = time.Now()
		return OutcomeNew, nil
	}

	// Revisions are strictly ordered by observation timestamp; an
	// observation older than the latest revision is stale and cannot
	// win any newest-wins field, so it is discarded outright.
	if latest := record.Latest(); incoming.ObservedAt.Before(latest.ObservedAt) {
		return OutcomeUnchanged, nil
	}

	next, changed := e.mergeFields(&record.Current, incoming)
	if len(changed) == 0 {
		return OutcomeUnchanged, nil
	}

	record.Revisions = append(record.Revisions, meetings.Revision{
		ID:         uuid.NewString(),
		Meeting:    next.Copy(),
		ObservedAt: incoming.ObservedAt,
		Changed:    changed,
	})
	record.Current = next
	record.UpdatedAt = time.Now()
	return OutcomeUpdated, nil
}

// mergeFields builds the next snapshot from the current one and an
// incoming observation, applying precedence independently per field.
// It returns the snapshot and the names of the fields that changed.
func (e *Engine) mergeFields(current, incoming *meetings.Meeting) (meetings.Meeting, []string) {
	next := current.Copy()
	var changed []string

	// Schedule corrections are common; the most recent observation is
	// trusted over stale extractions for start and end.
	rescheduled := false
	if !incoming.Start.Equal(current.Start) {
		drift := incoming.Start.Sub(current.Start)
		if drift < 0 {
			drift = -drift
		}
		rescheduled = drift > e.tolerance
		next.Start = incoming.Start
		changed = append(changed, "start")
	}
	if !equalEnd(current.End, incoming.End) {
		next.End = copyEnd(incoming.End)
		changed = append(changed, "end")
	}
	if incoming.AllDay != current.AllDay {
		next.AllDay = incoming.AllDay
		changed = append(changed, "all_day")
	}

	// Most recent observation always wins for status. A start that
	// moved beyond tolerance is a genuine reschedule and overrides
	// whatever the raw token said, preserving the fact that something
	// changed.
	status := incoming.Status
	if rescheduled {
		status = meetings.StatusRescheduled
	}
	if status != current.Status {
		next.Status = status
		changed = append(changed, "status")
	}

	if incoming.Title != current.Title {
		next.Title = incoming.Title
		changed = append(changed, "title")
	}
	if incoming.Classification != "" && incoming.Classification != current.Classification {
		next.Classification = incoming.Classification
		changed = append(changed, "classification")
	}
	if incoming.Description != "" && incoming.Description != current.Description {
		next.Description = incoming.Description
		changed = append(changed, "description")
	}
	if incoming.TimeNotes != "" && incoming.TimeNotes != current.TimeNotes {
		next.TimeNotes = incoming.TimeNotes
		changed = append(changed, "time_notes")
	}
	if !incoming.Location.IsZero() && incoming.Location != current.Location {
		next.Location = incoming.Location
		changed = append(changed, "location")
	}
	if incoming.SourceURL != "" && incoming.SourceURL != current.SourceURL {
		next.SourceURL = incoming.SourceURL
		changed = append(changed, "source_url")
	}

	merged := mergeLinks(current.Links, incoming.Links)
	if !equalLinks(merged, current.Links) {
		next.Links = merged
		changed = append(changed, "links")
	} else {
		next.Links = current.Links
	}

	next.ObservedAt = incoming.ObservedAt
	return next, changed
}

// mergeLinks unions the newest observation's link set with previously
// seen links of other classifications. A newly observed set of the same
// classification supersedes the old set: agencies routinely replace a
// posted agenda file without changing its label.
func mergeLinks(existing, incoming []meetings.Link) []meetings.Link {
	if len(incoming) == 0 {
		return existing
	}
	superseded := make(map[meetings.LinkType]bool, len(incoming))
	for _, l := range incoming {
		superseded[l.Type] = true
	}
	out := make([]meetings.Link, 0, len(existing)+len(incoming))
	for _, l := range existing {
		if !superseded[l.Type] {
			out = append(out, l)
		}
	}
	return append(out, incoming...)
}

func equalLinks(a, b []meetings.Link) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalEnd(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func copyEnd(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
