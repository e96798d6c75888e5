package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1telemetry-compare-go/pkg/apperrors"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/processing/aggregate"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/upstream"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/resultcache"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/sessioncache"
	"github.com/mpapenbr/f1telemetry-compare-go/testsupport/basedata"
)

func newService(
	t *testing.T, loader upstream.SessionLoader, results *resultcache.Cache,
) *Service {
	t.Helper()
	if results == nil {
		var err error
		results, err = resultcache.New(t.TempDir())
		require.NoError(t, err)
	}
	sessions := sessioncache.New(sessioncache.WithLoader(loader))
	return InitCompareService(sessions, results, aggregate.New())
}

func validRequest() Request {
	return Request{
		Year:        2024,
		Event:       "Monza",
		SessionType: "R",
		Driver1:     "VER",
		Driver2:     "HAM",
		NumPoints:   5,
	}
}

func TestCompareTelemetryPipeline(t *testing.T) {
	loader := &basedata.Loader{Session: basedata.TwoDriverSession()}
	svc := newService(t, loader, nil)

	got, err := svc.CompareTelemetry(context.Background(), validRequest())
	require.NoError(t, err)

	// fastest-lap selection (lap number 0 in the request)
	assert.Equal(t, 5, got.Driver1.LapNumber)
	assert.Equal(t, 7, got.Driver2.LapNumber)
	assert.Equal(t, "Red Bull Racing", got.Driver1.Team)
	assert.Equal(t, "#3671C6", got.Driver1.TeamColor)
	assert.Equal(t, "#27F4D2", got.Driver2.TeamColor,
		"team colors are normalized to a leading '#'")

	assert.Equal(t, model.AxisDistance, got.AxisKind)
	assert.Empty(t, cmp.Diff([]float64{0, 50, 100, 150, 200}, got.Axis))
	assert.InDeltaSlice(t,
		[]float64{100, 125, 150, 175, 200}, got.Channels1.Speed, 1e-9)
	assert.InDeltaSlice(t,
		[]float64{100, 180, 185, 190, 220}, got.Channels2.Speed, 1e-9)

	// driver1 is the baseline, HAM loses 1.5s over the lap
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0, 1.5}, got.DeltaTime, 1e-9)
	assert.InDelta(t, 1.5, got.LapTimeDelta, 1e-9)
	assert.InDelta(t, 20, got.MaxSpeedDelta, 1e-9)
	assert.Equal(t, 5, got.DataPoints)
}

func TestCompareTelemetryServedFromResultCache(t *testing.T) {
	results, err := resultcache.New(t.TempDir())
	require.NoError(t, err)

	warm := newService(t,
		&basedata.Loader{Session: basedata.TwoDriverSession()}, results)
	want, err := warm.CompareTelemetry(context.Background(), validRequest())
	require.NoError(t, err)

	// same result cache, but any upstream access would fail now
	failing := &basedata.Loader{Err: errors.New("upstream gone")}
	cold := newService(t, failing, results)
	got, err := cold.CompareTelemetry(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(want, got))
	assert.Equal(t, 0, failing.Calls(),
		"a cached comparison must not touch upstream")
}

func TestCompareTelemetryExplicitLapSelection(t *testing.T) {
	loader := &basedata.Loader{Session: basedata.TwoDriverSession()}
	svc := newService(t, loader, nil)

	req := validRequest()
	req.Lap1 = 5
	req.Lap2 = 7
	got, err := svc.CompareTelemetry(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Driver1.LapNumber)
	assert.Equal(t, 7, got.Driver2.LapNumber)

	req.Lap2 = 99
	_, err = svc.CompareTelemetry(context.Background(), req)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCompareTelemetryValidation(t *testing.T) {
	testcases := []struct {
		name   string
		mutate func(*Request)
		check  func(error) bool
	}{
		{
			name:   "missing driver",
			mutate: func(r *Request) { r.Driver2 = "" },
			check:  apperrors.IsValidation,
		},
		{
			name:   "bad session type",
			mutate: func(r *Request) { r.SessionType = "FP9" },
			check:  apperrors.IsValidation,
		},
		{
			name:   "too few points",
			mutate: func(r *Request) { r.NumPoints = 1 },
			check:  apperrors.IsValidation,
		},
		{
			name:   "pre-telemetry season",
			mutate: func(r *Request) { r.Year = 2008 },
			check:  apperrors.IsTelemetryUnavailable,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			loader := &basedata.Loader{Session: basedata.TwoDriverSession()}
			svc := newService(t, loader, nil)
			req := validRequest()
			tc.mutate(&req)

			_, err := svc.CompareTelemetry(context.Background(), req)

			assert.True(t, tc.check(err))
			assert.Equal(t, 0, loader.Calls(),
				"invalid requests must not reach upstream")
		})
	}
}

func TestCompareTelemetryPreTelemetrySeasonHint(t *testing.T) {
	svc := newService(t,
		&basedata.Loader{Session: basedata.TwoDriverSession()}, nil)
	req := validRequest()
	req.Year = 2008

	_, err := svc.CompareTelemetry(context.Background(), req)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2011")
	assert.Contains(t, err.Error(), "2018")
}

func TestCompareTelemetryUnknownDriver(t *testing.T) {
	svc := newService(t,
		&basedata.Loader{Session: basedata.TwoDriverSession()}, nil)
	req := validRequest()
	req.Driver2 = "XXX"

	_, err := svc.CompareTelemetry(context.Background(), req)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCompareTelemetryDefaultNumPoints(t *testing.T) {
	svc := newService(t,
		&basedata.Loader{Session: basedata.TwoDriverSession()}, nil)
	req := validRequest()
	req.NumPoints = 0

	got, err := svc.CompareTelemetry(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, defaultNumPoints, got.DataPoints)
	assert.Len(t, got.Axis, defaultNumPoints)
	assert.Len(t, got.DeltaTime, defaultNumPoints)
}

func TestListDrivers(t *testing.T) {
	svc := newService(t,
		&basedata.Loader{Session: basedata.TwoDriverSession()}, nil)

	got, err := svc.ListDrivers(context.Background(), 2024, "Monza", "race")
	require.NoError(t, err)

	want := []model.DriverInfo{
		{Code: "VER", Name: "Max Verstappen",
			Team: "Red Bull Racing", TeamColor: "#3671C6"},
		{Code: "HAM", Name: "Lewis Hamilton",
			Team: "Mercedes", TeamColor: "#27F4D2"},
	}
	assert.Empty(t, cmp.Diff(want, got))
}
