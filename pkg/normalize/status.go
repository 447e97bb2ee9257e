package normalize

import (
	"regexp"
	"strings"

	"github.com/opencivic/meetingfeed/pkg/meetings"
)

// Status tokens are matched case- and punctuation-insensitively. Unknown
// or absent tokens default to CONFIRMED: most public postings are
// confirmed schedules unless explicitly marked otherwise.

var rePunct = regexp.MustCompile(`[^a-z0-9 ]+`)

// statusTokens maps folded raw tokens onto the canonical enum.
var statusTokens = map[string]meetings.Status{
	"tentative":   meetings.StatusTentative,
	"draft":       meetings.StatusTentative,
	"proposed":    meetings.StatusTentative,
	"unconfirmed": meetings.StatusTentative,
	"pending":     meetings.StatusTentative,

	"confirmed": meetings.StatusConfirmed,
	"scheduled": meetings.StatusConfirmed,
	"regular":   meetings.StatusConfirmed,
	"upcoming":  meetings.StatusConfirmed,

	"cancelled":    meetings.StatusCancelled,
	"canceled":     meetings.StatusCancelled,
	"cancellation": meetings.StatusCancelled,
	"postponed":    meetings.StatusCancelled,
	"no meeting":   meetings.StatusCancelled,

	"rescheduled":  meetings.StatusRescheduled,
	"moved":        meetings.StatusRescheduled,
	"date changed": meetings.StatusRescheduled,
	"time changed": meetings.StatusRescheduled,
}

// Markers agencies bake into titles instead of a status field
// ("City Council Meeting - CANCELLED").
var (
	reTitleCancelled   = regexp.MustCompile(`(?i)\bcancel\w*|\bpostpon\w*`)
	reTitleRescheduled = regexp.MustCompile(`(?i)\breschedul\w*`)
)

// normalizeStatus maps a raw status token onto the canonical enum,
// falling back to markers embedded in the title when the source states
// no status of its own.
func normalizeStatus(rawStatus, title string) meetings.Status {
	folded := foldToken(rawStatus)
	if folded != "" {
		if status, ok := statusTokens[folded]; ok {
			return status
		}
		// A stated but unrecognized token still gets the conservative
		// default, same as an absent one.
		return meetings.StatusConfirmed
	}

	switch {
	case reTitleCancelled.MatchString(title):
		return meetings.StatusCancelled
	case reTitleRescheduled.MatchString(title):
		return meetings.StatusRescheduled
	default:
		return meetings.StatusConfirmed
	}
}

// foldToken lowercases, strips punctuation, and collapses whitespace.
func foldToken(s string) string {
	s = strings.ToLower(s)
	s = rePunct.ReplaceAllString(s, " ")
	return collapseWhitespace(s)
}
