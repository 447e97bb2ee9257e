package extract_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/meetingfeed/pkg/extract"
	"github.com/opencivic/meetingfeed/pkg/meetings"
	"github.com/opencivic/meetingfeed/pkg/registry"
)

const meetingsPage = `<!DOCTYPE html>
<html><body>
<div class="meeting">
  <h3 class="title">Board of Commissioners <a href="#ignored">anchor</a></h3>
  <span class="date">March&nbsp;5, 2025</span>
  <span class="when">6:00 PM</span>
  <span class="where">Courthouse, 240 NW Vancouver Ave</span>
  <p class="notes">Doors open 30 minutes early</p>
  <ul>
    <li><a href="/docs/agenda.pdf">Agenda</a></li>
    <li><a href="javascript:void(0)">Print</a></li>
    <li><a href="https://archive.example.org/minutes.pdf">Minutes</a></li>
  </ul>
</div>
<div class="meeting">
  <h3 class="title">Planning Commission</h3>
  <span class="date">March 12, 2025</span>
</div>
<div class="meeting"><p>empty block without title or date</p></div>
</body></html>`

func testAgency() registry.Agency {
	return registry.Agency{
		ID:      "colgo_skamania",
		Name:    "Skamania County Board of Commissioners",
		BaseURL: "https://www.skamaniacounty.org",
		StartURLs: []string{
			"https://www.skamaniacounty.org/meetings",
		},
		Settings: map[string]string{
			extract.SettingItemSelector:      "div.meeting",
			extract.SettingTitleSelector:     "h3.title",
			extract.SettingDateSelector:      "span.date",
			extract.SettingTimeSelector:      "span.when",
			extract.SettingLocationSelector:  "span.where",
			extract.SettingTimeNotesSelector: "p.notes",
		},
	}
}

func staticFetcher(pages map[string]string) extract.Fetcher {
	return func(_ context.Context, pageURL string) ([]byte, error) {
		body, ok := pages[pageURL]
		if !ok {
			return nil, fmt.Errorf("unexpected fetch of %s", pageURL)
		}
		return []byte(body), nil
	}
}

func TestHTMLExtract(t *testing.T) {
	agency := testAgency()
	h := extract.NewHTML(staticFetcher(map[string]string{
		agency.StartURLs[0]: meetingsPage,
	}))

	obs, err := h.Extract(context.Background(), agency)
	require.NoError(t, err)
	require.Len(t, obs, 2, "the empty block must be skipped")

	first := obs[0]
	assert.Equal(t, "colgo_skamania", first.AgencyID)
	assert.Equal(t, "Board of Commissioners anchor", first.Title)
	assert.Equal(t, "March 5, 2025", first.RawDate, "non-breaking space must be cleaned")
	assert.Equal(t, "6:00 PM", first.RawTime)
	assert.Equal(t, "Courthouse, 240 NW Vancouver Ave", first.RawLocation)
	assert.Equal(t, "Doors open 30 minutes early", first.TimeNotes)
	assert.Equal(t, agency.StartURLs[0], first.SourceURL)
	assert.False(t, first.ObservedAt.IsZero())

	// Fragment and javascript anchors are dropped, relative hrefs are
	// resolved against the base URL, absolute ones pass through.
	require.Len(t, first.Links, 2)
	assert.Equal(t, "https://www.skamaniacounty.org/docs/agenda.pdf", first.Links[0].URL)
	assert.Equal(t, "Agenda", first.Links[0].Text)
	assert.Equal(t, "https://archive.example.org/minutes.pdf", first.Links[1].URL)

	second := obs[1]
	assert.Equal(t, "Planning Commission", second.Title)
	assert.Empty(t, second.RawTime)
}

func TestHTMLExtractRequiresItemSelector(t *testing.T) {
	agency := testAgency()
	delete(agency.Settings, extract.SettingItemSelector)

	h := extract.NewHTML(staticFetcher(nil))
	_, err := h.Extract(context.Background(), agency)
	assert.Error(t, err)
}

func TestHTMLExtractPropagatesFetchError(t *testing.T) {
	h := extract.NewHTML(func(context.Context, string) ([]byte, error) {
		return nil, fmt.Errorf("connection refused")
	})

	_, err := h.Extract(context.Background(), testAgency())
	assert.Error(t, err)
}

func TestMuxRouting(t *testing.T) {
	dedicated := extract.Func(func(_ context.Context, agency registry.Agency) ([]meetings.RawObservation, error) {
		return []meetings.RawObservation{{AgencyID: agency.ID, Title: "dedicated"}}, nil
	})
	fallback := extract.Func(func(_ context.Context, agency registry.Agency) ([]meetings.RawObservation, error) {
		return []meetings.RawObservation{{AgencyID: agency.ID, Title: "fallback"}}, nil
	})

	mux := extract.NewMux().
		Handle("colgo_skamania", dedicated).
		Fallback(fallback)

	obs, err := mux.Extract(context.Background(), registry.Agency{ID: "colgo_skamania"})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "dedicated", obs[0].Title)

	obs, err = mux.Extract(context.Background(), registry.Agency{ID: "dalles_city"})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "fallback", obs[0].Title)
}

func TestMuxWithoutFallback(t *testing.T) {
	obs, err := extract.NewMux().Extract(context.Background(), registry.Agency{ID: "unrouted"})
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Board of   Commissioners ", "Board of Commissioners"},
		{"March 5,\n2025", "March 5, 2025"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extract.CleanText(tt.in))
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		base string
		href string
		want string
	}{
		{"https://example.org", "/docs/agenda.pdf", "https://example.org/docs/agenda.pdf"},
		{"https://example.org/meetings/", "agenda.pdf", "https://example.org/meetings/agenda.pdf"},
		{"https://example.org", "https://other.org/x.pdf", "https://other.org/x.pdf"},
		{"", "/docs/agenda.pdf", "/docs/agenda.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extract.AbsoluteURL(tt.base, tt.href))
	}
}

func TestHTTPFetcherIsDefault(t *testing.T) {
	// NewHTML(nil) must still produce a working extractor; exercised
	// against an unroutable address to keep the test offline.
	h := extract.NewHTML(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	agency := testAgency()
	agency.StartURLs = []string{"http://127.0.0.1:1/unreachable"}
	_, err := h.Extract(ctx, agency)
	assert.Error(t, err)
}
