package normalize

import (
	"strings"

	"github.com/opencivic/meetingfeed/pkg/meetings"
)

// Link classification: link-text keyword match first, URL path keyword
// match second, OTHER last. Packet vocabulary is checked before agenda
// because "agenda packet" is a packet, not an agenda. Multiple links of
// the same type are retained in source order, never collapsed.

type linkVocab struct {
	linkType meetings.LinkType
	keywords []string
}

var linkVocabulary = []linkVocab{
	{meetings.LinkPacket, []string{"packet", "board package", "meeting materials"}},
	{meetings.LinkAgenda, []string{"agenda"}},
	{meetings.LinkMinutes, []string{"minutes", "meeting notes", "summary of proceedings"}},
}

// classifyLinks tags each raw link with its document classification.
func classifyLinks(raw []meetings.RawLink) []meetings.Link {
	if len(raw) == 0 {
		return nil
	}
	out := make([]meetings.Link, 0, len(raw))
	for _, rl := range raw {
		if rl.URL == "" {
			continue
		}
		out = append(out, meetings.Link{
			Type: classifyLink(rl),
			URL:  rl.URL,
			Text: collapseWhitespace(rl.Text),
		})
	}
	return out
}

func classifyLink(rl meetings.RawLink) meetings.LinkType {
	text := strings.ToLower(rl.Text)
	for _, v := range linkVocabulary {
		for _, kw := range v.keywords {
			if strings.Contains(text, kw) {
				return v.linkType
			}
		}
	}

	path := strings.ToLower(urlPath(rl.URL))
	for _, v := range linkVocabulary {
		for _, kw := range v.keywords {
			if strings.Contains(path, strings.ReplaceAll(kw, " ", "-")) ||
				strings.Contains(path, strings.ReplaceAll(kw, " ", "_")) ||
				strings.Contains(path, strings.ReplaceAll(kw, " ", "")) {
				return v.linkType
			}
		}
	}

	return meetings.LinkOther
}

// urlPath strips scheme, host, and query, leaving only the path portion.
func urlPath(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
		if j := strings.IndexByte(u, '/'); j >= 0 {
			u = u[j:]
		} else {
			return ""
		}
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u
}
