package meetings

import "slices"

// Status is the canonical meeting status. It is a strict superset of the
// free-text tokens agency sites publish.
type Status string

// Canonical statuses.
const (
	// StatusTentative marks a meeting published as draft or unconfirmed.
	StatusTentative Status = "TENTATIVE"
	// StatusConfirmed is the default: most public postings are confirmed
	// schedules unless explicitly marked otherwise.
	StatusConfirmed Status = "CONFIRMED"
	// StatusCancelled marks a cancelled or postponed meeting.
	StatusCancelled Status = "CANCELLED"
	// StatusRescheduled marks a meeting whose start moved between
	// observations, or one the source explicitly flags as rescheduled.
	StatusRescheduled Status = "RESCHEDULED"
)

// Statuses returns all canonical statuses.
func Statuses() []Status {
	return []Status{
		StatusTentative,
		StatusConfirmed,
		StatusCancelled,
		StatusRescheduled,
	}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is one of the canonical values.
func (s Status) IsValid() bool {
	return slices.Contains(Statuses(), s)
}
