package normalize

import (
	"strings"

	"github.com/opencivic/meetingfeed/pkg/meetings"
)

// normalizeLocation builds a structured location from whatever split the
// extractor managed. When only a combined string exists, a leading
// venue-name segment (no digits, comma-separated) is peeled off as the
// name; strings that open with a street number are pure addresses.
func normalizeLocation(name, raw string) meetings.Location {
	name = collapseWhitespace(name)
	raw = collapseWhitespace(raw)

	if name != "" {
		return meetings.Location{Name: name, Address: raw}
	}
	if raw == "" {
		return meetings.Location{}
	}

	head, rest, found := strings.Cut(raw, ",")
	if found && !containsDigit(head) {
		return meetings.Location{
			Name:    strings.TrimSpace(head),
			Address: collapseWhitespace(rest),
		}
	}
	if containsDigit(raw) {
		return meetings.Location{Address: raw}
	}
	return meetings.Location{Name: raw}
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
