package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/opencivic/meetingfeed/pkg/meetings"
	"github.com/opencivic/meetingfeed/pkg/registry"
)

const (
	// UserAgent identifies the crawler to agency sites.
	UserAgent = "meetingfeed/1.0 (+https://github.com/opencivic/meetingfeed)"

	fetchTimeout = 30 * time.Second
)

// Fetcher retrieves one page. The default implementation is a plain
// HTTP GET; tests and callers with their own transport policy inject
// something else.
type Fetcher func(ctx context.Context, pageURL string) ([]byte, error)

// HTTPFetcher returns a Fetcher backed by the given client, or a
// default client when nil.
func HTTPFetcher(client *http.Client) Fetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return func(ctx context.Context, pageURL string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
}

// Selector settings keys recognized by the HTML extractor. Values come
// from the agency's registry settings.
const (
	SettingItemSelector        = "item_selector"
	SettingTitleSelector       = "title_selector"
	SettingDateSelector        = "date_selector"
	SettingTimeSelector        = "time_selector"
	SettingLocationSelector    = "location_selector"
	SettingStatusSelector      = "status_selector"
	SettingDescriptionSelector = "description_selector"
	SettingTimeNotesSelector   = "time_notes_selector"
)

// HTML is a selector-driven extractor for list- and calendar-shaped
// agency pages. It covers the common case where an agency's page is a
// repeated block of title, date, and document links; agencies with
// stranger markup get a dedicated Extractor instead.
type HTML struct {
	fetch Fetcher
	now   func() time.Time
}

// NewHTML creates the selector-driven HTML extractor.
func NewHTML(fetch Fetcher) *HTML {
	if fetch == nil {
		fetch = HTTPFetcher(nil)
	}
	return &HTML{fetch: fetch, now: time.Now}
}

// Extract implements Extractor.
func (h *HTML) Extract(ctx context.Context, agency registry.Agency) ([]meetings.RawObservation, error) {
	itemSel := agency.Setting(SettingItemSelector, "")
	if itemSel == "" {
		return nil, fmt.Errorf("agency %s has no %s setting", agency.ID, SettingItemSelector)
	}

	var out []meetings.RawObservation
	for _, pageURL := range agency.StartURLs {
		body, err := h.fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		obs, err := h.parsePage(agency, pageURL, body)
		if err != nil {
			return nil, err
		}
		out = append(out, obs...)
	}
	return out, nil
}

// parsePage extracts observations from one fetched page.
func (h *HTML) parsePage(agency registry.Agency, pageURL string, body []byte) ([]meetings.RawObservation, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	observedAt := h.now()
	var out []meetings.RawObservation

	doc.Find(agency.Setting(SettingItemSelector, "")).Each(func(_ int, item *goquery.Selection) {
		obs := meetings.RawObservation{
			AgencyID:    agency.ID,
			Title:       selectText(item, agency.Setting(SettingTitleSelector, "a")),
			Description: selectText(item, agency.Setting(SettingDescriptionSelector, "")),
			TimeNotes:   selectText(item, agency.Setting(SettingTimeNotesSelector, "")),
			RawDate:     selectText(item, agency.Setting(SettingDateSelector, ".date")),
			RawTime:     selectText(item, agency.Setting(SettingTimeSelector, "")),
			RawLocation: selectText(item, agency.Setting(SettingLocationSelector, "")),
			RawStatus:   selectText(item, agency.Setting(SettingStatusSelector, "")),
			Links:       HarvestLinks(item, agency.BaseURL),
			SourceURL:   pageURL,
			ObservedAt:  observedAt,
		}
		if obs.Title == "" && obs.RawDate == "" {
			return
		}
		out = append(out, obs)
	})
	return out, nil
}

// selectText returns the cleaned text of the first match, or the empty
// string for an empty selector.
func selectText(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return CleanText(s.Find(selector).First().Text())
}

// CleanText trims and collapses whitespace, including the non-breaking
// spaces agency CMSes are fond of.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// HarvestLinks collects every anchor in the selection as a raw link,
// resolving relative hrefs against the base URL. Order follows the page.
func HarvestLinks(s *goquery.Selection, baseURL string) []meetings.RawLink {
	var links []meetings.RawLink
	s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		links = append(links, meetings.RawLink{
			URL:  AbsoluteURL(baseURL, href),
			Text: CleanText(a.Text()),
		})
	})
	return links
}

// AbsoluteURL resolves href against base, returning href unchanged when
// it is already absolute or the base cannot be parsed.
func AbsoluteURL(base, href string) string {
	if base == "" {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	hu, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(hu).String()
}
