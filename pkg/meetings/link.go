package meetings

import "slices"

// LinkType classifies a document link attached to a meeting.
type LinkType string

// Link classifications.
const (
	LinkAgenda  LinkType = "AGENDA"
	LinkMinutes LinkType = "MINUTES"
	LinkPacket  LinkType = "PACKET"
	LinkOther   LinkType = "OTHER"
)

// LinkTypes returns all link classifications.
func LinkTypes() []LinkType {
	return []LinkType{LinkAgenda, LinkMinutes, LinkPacket, LinkOther}
}

// String returns the string representation of the link type.
func (t LinkType) String() string {
	return string(t)
}

// IsValid returns true if the link type is one of the defined constants.
func (t LinkType) IsValid() bool {
	return slices.Contains(LinkTypes(), t)
}

// Link is a classified document link.
type Link struct {
	Type LinkType `json:"type" yaml:"type"`
	URL  string   `json:"url" yaml:"url"`
	// Text is the link-text hint the source page used ("Agenda",
	// "Meeting Packet", ...). Kept for display and re-classification.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// LinksOfType returns the links with the given classification, in order.
func LinksOfType(links []Link, t LinkType) []Link {
	var out []Link
	for _, l := range links {
		if l.Type == t {
			out = append(out, l)
		}
	}
	return out
}
