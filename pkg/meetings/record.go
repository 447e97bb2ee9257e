package meetings

import "time"

// Revision is one immutable, timestamped version of a record's fields,
// appended on meaningful change. Revisions are strictly ordered by
// observation timestamp.
type Revision struct {
	// ID is a unique revision identifier.
	ID string `json:"id" yaml:"id"`

	// Meeting is the normalized meeting as observed at this revision.
	Meeting Meeting `json:"meeting" yaml:"meeting"`

	// ObservedAt is the observation timestamp this revision was built from.
	ObservedAt time.Time `json:"observed_at" yaml:"observed_at"`

	// Changed lists the field names that differed from the previous
	// snapshot. Empty for the first revision.
	Changed []string `json:"changed,omitempty" yaml:"changed,omitempty"`
}

// MeetingRecord is the stored, merged entity for one identity key.
// The record store exclusively owns its lifetime.
type MeetingRecord struct {
	// ID is the identity key (primary key).
	ID string `json:"id" yaml:"id"`

	// Revisions is the append-only revision history, ordered by
	// observation timestamp.
	Revisions []Revision `json:"revisions" yaml:"revisions"`

	// Current is the field-wise merge of all revisions per the
	// precedence rules, never just the last revision blindly.
	Current Meeting `json:"current" yaml:"current"`

	// UpdatedAt is when the record was last touched by an upsert that
	// produced a revision.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Latest returns the most recent revision, or nil for an empty record.
func (r *MeetingRecord) Latest() *Revision {
	if len(r.Revisions) == 0 {
		return nil
	}
	return &r.Revisions[len(r.Revisions)-1]
}

// Copy returns a deep copy of the record.
func (r *MeetingRecord) Copy() *MeetingRecord {
	out := &MeetingRecord{
		ID:        r.ID,
		Current:   r.Current.Copy(),
		UpdatedAt: r.UpdatedAt,
	}
	out.Revisions = make([]Revision, len(r.Revisions))
	for i, rev := range r.Revisions {
		out.Revisions[i] = Revision{
			ID:         rev.ID,
			Meeting:    rev.Meeting.Copy(),
			ObservedAt: rev.ObservedAt,
		}
		if rev.Changed != nil {
			out.Revisions[i].Changed = make([]string, len(rev.Changed))
			copy(out.Revisions[i].Changed, rev.Changed)
		}
	}
	return out
}
