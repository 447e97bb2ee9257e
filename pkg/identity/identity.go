// Package identity computes the deterministic identity key that makes
// repeated observations of the same real-world meeting recognizable
// across independent crawl runs.
//
// The key is (agency identifier, calendar date of the start, a folded
// digest of the title). Time of day is deliberately excluded: an agency
// correcting a 6pm typo to 7pm must resolve to the same identity, not
// spawn a duplicate. Two genuinely distinct same-day meetings of one
// body are disambiguated by their title digests; when even the titles
// are identical, they collapse into one identity — a documented
// limitation rather than a silent error.
package identity

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/opencivic/meetingfeed/pkg/errors"
	"github.com/opencivic/meetingfeed/pkg/meetings"
)

const dateLayout = "20060102"

var fold = cases.Fold()

// Resolve computes the identity key for a normalized meeting and stamps
// it onto the meeting's ID field.
func Resolve(m *meetings.Meeting) (string, error) {
	if m.AgencyID == "" {
		return "", errors.NewValidationError("agency_id", "", "meeting has no agency identifier")
	}
	if m.Start.IsZero() {
		return "", errors.NewValidationError("start", nil, "meeting has no start instant")
	}
	key := Key(m.AgencyID, m.Date().Format(dateLayout), TitleDigest(m.Title))
	m.ID = key
	return key, nil
}

// Key assembles an identity key from its three parts.
func Key(agencyID, date, digest string) string {
	return fmt.Sprintf("%s/%s/%s", agencyID, date, digest)
}

// TitleDigest produces the case-folded, whitespace-normalized,
// punctuation-stripped digest of a meeting title. "Special Mtg. —
// Budget" and "special mtg budget" digest identically.
func TitleDigest(title string) string {
	folded := fold.String(title)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
