// Package normalize converts raw, per-extractor meeting observations into
// the canonical meeting schema. It is agency-agnostic: agency-specific
// quirks must already have been resolved by the extractor into one of the
// general date/time shapes this package understands, or into a pre-parsed
// start/end pair that bypasses string parsing entirely.
package normalize

import (
	"strings"
	"time"

	"github.com/opencivic/meetingfeed/pkg/errors"
	"github.com/opencivic/meetingfeed/pkg/meetings"
)

// DefaultTimezone is the regional local time used when no other location
// is configured.
const DefaultTimezone = "America/Los_Angeles"

// Normalizer converts RawObservations into canonical Meetings, or rejects
// them with a typed reason.
type Normalizer struct {
	loc *time.Location
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithLocation sets the regional timezone meetings are normalized into.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) error {
		if loc == nil {
			return errors.NewConfigError("normalizer", "location cannot be nil", nil)
		}
		n.loc = loc
		return nil
	}
}

// New creates a Normalizer with options.
func New(opts ...Option) (*Normalizer, error) {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return nil, errors.NewConfigError("normalizer", "loading default timezone", err)
	}
	n := &Normalizer{loc: loc}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Location returns the regional timezone the normalizer resolves into.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// In returns a normalizer resolving into loc instead of the configured
// regional timezone. A nil loc returns the receiver unchanged; used for
// per-agency timezone overrides.
func (n *Normalizer) In(loc *time.Location) *Normalizer {
	if loc == nil || loc == n.loc {
		return n
	}
	return &Normalizer{loc: loc}
}

// Normalize converts one raw observation into a canonical meeting.
// The returned meeting has no identity key; the identity resolver
// assigns it. On failure the error is a *errors.RejectionError carrying
// one of UNPARSEABLE_DATE, AMBIGUOUS_DATE, or MISSING_REQUIRED_FIELD.
func (n *Normalizer) Normalize(obs *meetings.RawObservation) (*meetings.Meeting, error) {
	if obs.AgencyID == "" {
		return nil, errors.NewRejectionError(errors.RejectMissingField,
			obs.AgencyID, "agency_id", "", "observation has no agency identifier")
	}

	title := collapseWhitespace(obs.Title)
	if title == "" {
		return nil, errors.NewRejectionError(errors.RejectMissingField,
			obs.AgencyID, "title", obs.Title, "observation has no title")
	}

	if obs.ObservedAt.IsZero() {
		return nil, errors.NewRejectionError(errors.RejectMissingField,
			obs.AgencyID, "observed_at", "", "observation has no crawl timestamp")
	}

	start, end, allDay, err := n.resolveTimes(obs)
	if err != nil {
		return nil, err
	}

	m := &meetings.Meeting{
		AgencyID:       obs.AgencyID,
		Title:          title,
		Classification: collapseWhitespace(obs.Classification),
		Description:    collapseWhitespace(obs.Description),
		TimeNotes:      collapseWhitespace(obs.TimeNotes),
		Start:          start,
		End:            end,
		AllDay:         allDay,
		Status:         normalizeStatus(obs.RawStatus, title),
		Location:       normalizeLocation(obs.LocationName, obs.RawLocation),
		Links:          classifyLinks(obs.Links),
		SourceURL:      obs.SourceURL,
		ObservedAt:     obs.ObservedAt,
	}
	return m, nil
}

// resolveTimes produces the concrete start/end instants for one
// observation, preferring a pre-parsed pair over string parsing.
func (n *Normalizer) resolveTimes(obs *meetings.RawObservation) (time.Time, *time.Time, bool, error) {
	// Pre-parsed pair bypasses string parsing; the extractor already
	// knows the source's exact format.
	if obs.Start != nil {
		start := obs.Start.In(n.loc)
		var end *time.Time
		if obs.End != nil {
			e := obs.End.In(n.loc)
			end = &e
		}
		return start, end, obs.AllDay, nil
	}

	if strings.TrimSpace(obs.RawDate) == "" {
		return time.Time{}, nil, false, errors.NewRejectionError(errors.RejectMissingField,
			obs.AgencyID, "raw_date", "", "observation has neither a date string nor a pre-parsed start")
	}

	return n.parseDateTime(obs)
}

// collapseWhitespace trims and collapses runs of whitespace into single
// spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
