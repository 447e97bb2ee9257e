package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/meetingfeed/pkg/identity"
	"github.com/opencivic/meetingfeed/pkg/meetings"
	"github.com/opencivic/meetingfeed/pkg/normalize"
)

func TestResolveStampsKey(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	m := &meetings.Meeting{
		AgencyID: "colgo_skamania",
		Title:    "Board of Commissioners",
		Start:    time.Date(2025, time.March, 5, 18, 0, 0, 0, loc),
	}

	key, err := identity.Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, "colgo_skamania/20250305/board-of-commissioners", key)
	assert.Equal(t, key, m.ID)
}

// The same real-world meeting observed through different raw date
// formats must resolve to one identity.
func TestIdentityStableAcrossRawFormats(t *testing.T) {
	n, err := normalize.New()
	require.NoError(t, err)

	observedAt := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	rawDates := []string{
		"March 5, 2025 6:00 PM",
		"2025-03-05T18:00:00",
		"Wednesday, March 5, 2025 at 6:00 p.m.",
		"03/05/2025 7:00 PM", // time-of-day typo, same calendar date
	}

	var keys []string
	for _, raw := range rawDates {
		m, err := n.Normalize(&meetings.RawObservation{
			AgencyID:   "colgo_stevenson_city",
			Title:      "City Council Meeting",
			RawDate:    raw,
			ObservedAt: observedAt,
		})
		require.NoError(t, err, "raw date %q", raw)

		key, err := identity.Resolve(m)
		require.NoError(t, err)
		keys = append(keys, key)
	}

	for i := 1; i < len(keys); i++ {
		assert.Equal(t, keys[0], keys[i], "raw date %q produced a different key", rawDates[i])
	}
}

func TestResolveRequiresAgencyAndStart(t *testing.T) {
	_, err := identity.Resolve(&meetings.Meeting{Title: "x", Start: time.Now()})
	assert.Error(t, err)

	_, err = identity.Resolve(&meetings.Meeting{AgencyID: "a", Title: "x"})
	assert.Error(t, err)
}

func TestTitleDigest(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Board of Commissioners", "board-of-commissioners"},
		{"Special Mtg. — Budget", "special-mtg-budget"},
		{"special mtg budget", "special-mtg-budget"},
		{"  City   Council,  Meeting!  ", "city-council-meeting"},
		{"PLANNING COMMISSION", "planning-commission"},
		{"!!!", "untitled"},
		{"", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.TitleDigest(tt.title))
		})
	}
}

// Distinct same-day meetings of one body stay distinct through their
// titles; time of day never disambiguates.
func TestSameDayDistinctTitles(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	morning := &meetings.Meeting{
		AgencyID: "colgo_skamania",
		Title:    "Work Session",
		Start:    time.Date(2025, time.March, 5, 9, 0, 0, 0, loc),
	}
	evening := &meetings.Meeting{
		AgencyID: "colgo_skamania",
		Title:    "Regular Meeting",
		Start:    time.Date(2025, time.March, 5, 18, 0, 0, 0, loc),
	}

	k1, err := identity.Resolve(morning)
	require.NoError(t, err)
	k2, err := identity.Resolve(evening)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}
