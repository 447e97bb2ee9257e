// Package meetings defines the domain types shared across the meetingfeed
// pipeline: raw extractor observations, normalized canonical meetings, and
// the stored merged records with their revision history.
package meetings

import (
	"time"
)

// Meeting is the canonical, normalized shape of one public meeting
// occurrence. It is produced by the normalizer, keyed by the identity
// resolver, and stored only inside its owning record's revision history.
type Meeting struct {
	// ID is the identity key computed by the identity resolver. Stable
	// across crawl runs for the same real-world meeting.
	ID string `json:"id" yaml:"id"`

	// AgencyID identifies the agency whose site this meeting came from.
	AgencyID string `json:"agency_id" yaml:"agency_id"`

	// Title is the cleaned meeting title.
	Title string `json:"title" yaml:"title"`

	// Classification is the optional free-text body classification
	// (board, commission, city council, committee). Carried through
	// normalization untouched.
	Classification string `json:"classification,omitempty" yaml:"classification,omitempty"`

	// Description is the optional free-text meeting description,
	// carried through normalization untouched.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// TimeNotes carries source-stated caveats about the meeting time.
	TimeNotes string `json:"time_notes,omitempty" yaml:"time_notes,omitempty"`

	// Start is the timezone-aware start instant in regional local time.
	// Always present: an observation that cannot be assigned a concrete
	// start is rejected, never stored with a zero start.
	Start time.Time `json:"start" yaml:"start"`

	// End is the optional end instant; nil when the source never states one.
	End *time.Time `json:"end,omitempty" yaml:"end,omitempty"`

	// AllDay marks meetings published without a time of day.
	AllDay bool `json:"all_day" yaml:"all_day"`

	Status   Status   `json:"status" yaml:"status"`
	Location Location `json:"location" yaml:"location"`

	// Links are the classified document links, in source order. Multiple
	// links of the same type are retained, not collapsed.
	Links []Link `json:"links,omitempty" yaml:"links,omitempty"`

	// SourceURL is the page the observation was extracted from.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// ObservedAt is when the crawl producing this meeting happened.
	ObservedAt time.Time `json:"observed_at" yaml:"observed_at"`
}

// Location is a structured meeting location. Either field may be empty.
type Location struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// IsZero reports whether the location carries no information.
func (l Location) IsZero() bool {
	return l.Name == "" && l.Address == ""
}

// Date returns the calendar date portion of the start instant, truncated
// in the start's own location. Used by the identity resolver, which
// deliberately excludes time of day.
func (m *Meeting) Date() time.Time {
	y, mo, d := m.Start.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, m.Start.Location())
}

// Equal reports whether two meetings are field-wise identical, ignoring
// the observation timestamp. The merge engine uses this to discard
// no-op duplicate observations without minting a revision.
func (m *Meeting) Equal(other *Meeting) bool {
	if other == nil {
		return false
	}
	if m.AgencyID != other.AgencyID ||
		m.Title != other.Title ||
		m.Classification != other.Classification ||
		m.Description != other.Description ||
		m.TimeNotes != other.TimeNotes ||
		m.Status != other.Status ||
		m.AllDay != other.AllDay ||
		m.Location != other.Location ||
		m.SourceURL != other.SourceURL {
		return false
	}
	if !m.Start.Equal(other.Start) {
		return false
	}
	if (m.End == nil) != (other.End == nil) {
		return false
	}
	if m.End != nil && !m.End.Equal(*other.End) {
		return false
	}
	if len(m.Links) != len(other.Links) {
		return false
	}
	for i := range m.Links {
		if m.Links[i] != other.Links[i] {
			return false
		}
	}
	return true
}

// Copy returns a deep copy of the meeting.
func (m *Meeting) Copy() Meeting {
	out := *m
	if m.End != nil {
		end := *m.End
		out.End = &end
	}
	if m.Links != nil {
		out.Links = make([]Link, len(m.Links))
		copy(out.Links, m.Links)
	}
	return out
}
