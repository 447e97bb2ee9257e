package pipeline_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/meetingfeed/pkg/errors"
	"github.com/opencivic/meetingfeed/pkg/extract"
	"github.com/opencivic/meetingfeed/pkg/meetings"
	"github.com/opencivic/meetingfeed/pkg/pipeline"
	"github.com/opencivic/meetingfeed/pkg/registry"
	"github.com/opencivic/meetingfeed/pkg/store"
)

func testRegistry(t *testing.T, ids ...string) *registry.Registry {
	t.Helper()
	agencies := make([]registry.Agency, 0, len(ids))
	for _, id := range ids {
		agencies = append(agencies, registry.Agency{ID: id, Name: id})
	}
	reg, err := registry.New(agencies)
	require.NoError(t, err)
	return reg
}

func testStore(t *testing.T) *store.Memory {
	t.Helper()
	s, err := store.New()
	require.NoError(t, err)
	return s
}

// fixedObservations returns a deterministic extractor: n observations
// per crawl with a stable title, date, and observation timestamp.
func fixedObservations(n int, observedAt time.Time) extract.Extractor {
	return extract.Func(func(_ context.Context, agency registry.Agency) ([]meetings.RawObservation, error) {
		out := make([]meetings.RawObservation, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, meetings.RawObservation{
				AgencyID:   agency.ID,
				Title:      fmt.Sprintf("Regular Meeting %d", i+1),
				RawDate:    fmt.Sprintf("March %d, 2025 6:00 PM", i+10),
				SourceURL:  "https://example.org/meetings",
				ObservedAt: observedAt,
			})
		}
		return out, nil
	})
}

func TestRunHappyPath(t *testing.T) {
	reg := testRegistry(t, "alpha", "beta")
	st := testStore(t)
	observedAt := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

	orch, err := pipeline.New(reg, fixedObservations(2, observedAt), st)
	require.NoError(t, err)

	report, err := orch.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Agencies, 2)

	for _, ar := range report.Agencies {
		assert.True(t, ar.Succeeded())
		assert.Equal(t, 2, ar.Observed)
		assert.Equal(t, 2, ar.Normalized)
		assert.Equal(t, 2, ar.New)
		assert.Zero(t, ar.Updated)
		assert.Zero(t, ar.RejectedTotal())
	}
	assert.Equal(t, 4, st.Len())
}

// A second identical pass is pure bookkeeping: every observation lands
// as UNCHANGED and no new records appear.
func TestRunIdempotent(t *testing.T) {
	reg := testRegistry(t, "alpha", "beta")
	st := testStore(t)
	observedAt := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	extractor := fixedObservations(2, observedAt)

	orch, err := pipeline.New(reg, extractor, st)
	require.NoError(t, err)

	_, err = orch.Run(context.Background())
	require.NoError(t, err)

	second, err := orch.Run(context.Background())
	require.NoError(t, err)

	_, added, updated, unchanged, rejected := second.Totals()
	assert.Zero(t, added)
	assert.Zero(t, updated)
	assert.Zero(t, rejected)
	assert.Equal(t, 4, unchanged)
	assert.Equal(t, 4, st.Len())
}

// One agency's extractor failing mid-run must not disturb the other
// agencies' results.
func TestRunFailureIsolation(t *testing.T) {
	reg := testRegistry(t, "alpha", "beta", "gamma")
	st := testStore(t)
	observedAt := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

	mux := extract.NewMux().
		Handle("beta", extract.Func(func(context.Context, registry.Agency) ([]meetings.RawObservation, error) {
			return nil, fmt.Errorf("site returned 503")
		})).
		Fallback(fixedObservations(1, observedAt))

	orch, err := pipeline.New(reg, mux, st)
	require.NoError(t, err)

	report, err := orch.Run(context.Background())
	require.NoError(t, err, "an extractor failure is not a run failure")
	require.Len(t, report.Agencies, 3)

	// Reports are ordered by agency ID.
	assert.Equal(t, "alpha", report.Agencies[0].AgencyID)
	assert.Equal(t, "beta", report.Agencies[1].AgencyID)
	assert.Equal(t, "gamma", report.Agencies[2].AgencyID)

	assert.True(t, report.Agencies[0].Succeeded())
	assert.False(t, report.Agencies[1].Succeeded())
	assert.Equal(t, pipeline.FailureExtractor, report.Agencies[1].Failure)
	assert.Contains(t, report.Agencies[1].FailureCause, "503")
	assert.True(t, report.Agencies[2].Succeeded())

	require.Len(t, report.Failed(), 1)
	assert.Equal(t, 2, st.Len())
}

func TestRunCountsRejections(t *testing.T) {
	reg := testRegistry(t, "alpha")
	st := testStore(t)
	observedAt := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

	extractor := extract.Func(func(_ context.Context, agency registry.Agency) ([]meetings.RawObservation, error) {
		return []meetings.RawObservation{
			{AgencyID: agency.ID, Title: "Good", RawDate: "March 5, 2025", ObservedAt: observedAt},
			{AgencyID: agency.ID, Title: "Bad date", RawDate: "sometime soon", ObservedAt: observedAt},
			{AgencyID: agency.ID, Title: "Ambiguous", RawDate: "03/04/05", ObservedAt: observedAt},
			{AgencyID: agency.ID, Title: "", RawDate: "March 6, 2025", ObservedAt: observedAt},
		}, nil
	})

	orch, err := pipeline.New(reg, extractor, st)
	require.NoError(t, err)

	report, err := orch.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Agencies, 1)

	ar := report.Agencies[0]
	assert.Equal(t, 4, ar.Observed)
	assert.Equal(t, 1, ar.Normalized)
	assert.Equal(t, 1, ar.New)
	assert.Equal(t, 1, ar.Rejected[errors.RejectUnparseableDate])
	assert.Equal(t, 1, ar.Rejected[errors.RejectAmbiguousDate])
	assert.Equal(t, 1, ar.Rejected[errors.RejectMissingField])
	assert.Equal(t, 1, st.Len())
}

func TestRunTimeout(t *testing.T) {
	reg := testRegistry(t, "alpha")
	st := testStore(t)

	blocking := extract.Func(func(ctx context.Context, _ registry.Agency) ([]meetings.RawObservation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	orch, err := pipeline.New(reg, blocking, st,
		pipeline.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	report, err := orch.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Agencies, 1)
	assert.Equal(t, pipeline.FailureTimeout, report.Agencies[0].Failure)
}

// An extractor that never checks its context must not hold the run past
// the deadline: the run abandons it, reports the agency timed out, and
// keeps the agencies that did finish.
func TestRunAbandonsStuckExtractor(t *testing.T) {
	reg := testRegistry(t, "alpha", "stuck")
	st := testStore(t)
	observedAt := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

	good := fixedObservations(1, observedAt)
	stuck := extract.Func(func(_ context.Context, _ registry.Agency) ([]meetings.RawObservation, error) {
		time.Sleep(2 * time.Second)
		return nil, nil
	})
	mux := extract.NewMux().Handle("stuck", stuck).Fallback(good)

	orch, err := pipeline.New(reg, mux, st,
		pipeline.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	begin := time.Now()
	report, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(begin), time.Second, "run must return at the deadline, not when the extractor does")

	require.Len(t, report.Agencies, 2)
	assert.Equal(t, "alpha", report.Agencies[0].AgencyID)
	assert.True(t, report.Agencies[0].Succeeded())
	assert.Equal(t, 1, report.Agencies[0].New)

	assert.Equal(t, "stuck", report.Agencies[1].AgencyID)
	assert.Equal(t, pipeline.FailureTimeout, report.Agencies[1].Failure)
	assert.NotEmpty(t, report.Agencies[1].FailureCause)
}

// Within one agency observations apply in yield order, so a later
// observation in the same batch wins newest-equal fields
// deterministically.
func TestRunInOrderWithinAgency(t *testing.T) {
	reg := testRegistry(t, "alpha")
	st := testStore(t)
	observedAt := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

	extractor := extract.Func(func(_ context.Context, agency registry.Agency) ([]meetings.RawObservation, error) {
		return []meetings.RawObservation{
			{
				AgencyID: agency.ID, Title: "Regular Meeting",
				RawDate: "March 5, 2025 6:00 PM", ObservedAt: observedAt,
			},
			{
				AgencyID: agency.ID, Title: "Regular Meeting",
				RawDate: "March 5, 2025 6:00 PM", RawStatus: "Cancelled",
				ObservedAt: observedAt.Add(time.Minute),
			},
		}, nil
	})

	orch, err := pipeline.New(reg, extractor, st)
	require.NoError(t, err)

	report, err := orch.Run(context.Background())
	require.NoError(t, err)

	ar := report.Agencies[0]
	assert.Equal(t, 1, ar.New)
	assert.Equal(t, 1, ar.Updated)

	record, err := st.Get("alpha/20250305/regular-meeting")
	require.NoError(t, err)
	assert.Equal(t, meetings.StatusCancelled, record.Current.Status)
	assert.Len(t, record.Revisions, 2)
}

// An agency publishing in a different zone than the regional default
// gets its times resolved in its own zone.
func TestRunAgencyTimezoneOverride(t *testing.T) {
	reg, err := registry.New([]registry.Agency{
		{ID: "eastern", Name: "Eastern", Timezone: "America/New_York"},
	})
	require.NoError(t, err)
	st := testStore(t)
	observedAt := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

	orch, err := pipeline.New(reg, fixedObservations(1, observedAt), st)
	require.NoError(t, err)

	_, err = orch.Run(context.Background())
	require.NoError(t, err)

	record, err := st.Get("eastern/20250310/regular-meeting-1")
	require.NoError(t, err)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.True(t, record.Current.Start.Equal(time.Date(2025, time.March, 10, 18, 0, 0, 0, ny)))
	_, offset := record.Current.Start.Zone()
	_, wantOffset := time.Date(2025, time.March, 10, 18, 0, 0, 0, ny).Zone()
	assert.Equal(t, wantOffset, offset)
}

func TestNewValidation(t *testing.T) {
	reg := testRegistry(t, "alpha")
	st := testStore(t)
	extractor := fixedObservations(1, time.Now())

	_, err := pipeline.New(nil, extractor, st)
	assert.Error(t, err)

	_, err = pipeline.New(reg, nil, st)
	assert.Error(t, err)

	_, err = pipeline.New(reg, extractor, nil)
	assert.Error(t, err)

	_, err = pipeline.New(reg, extractor, st, pipeline.WithConcurrency(0))
	assert.Error(t, err)
}
