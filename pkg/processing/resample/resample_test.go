package resample

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-compare-go/testsupport/basedata"
)

func TestResampleLinearInterpolation(t *testing.T) {
	series := basedata.Series(1,
		[]float64{0, 40, 80},
		[]float64{0, 100, 200},
		[]float64{100, 150, 200})

	got, err := Resample(series, model.AxisDistance, 5)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff([]float64{0, 50, 100, 150, 200}, got.Axis))
	assert.InDeltaSlice(t, []float64{100, 125, 150, 175, 200}, got.Speed, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 20, 40, 60, 80}, got.Time, 1e-9)
	assert.Equal(t, model.AxisDistance, got.AxisKind)
	assert.Equal(t, 5, got.Len())
}

func TestResampleOnSharedAxis(t *testing.T) {
	series := basedata.Series(1,
		[]float64{0, 20, 60, 81.5},
		[]float64{0, 50, 150, 200},
		[]float64{100, 180, 190, 220})
	axis := []float64{0, 50, 100, 150, 200}

	got, err := ResampleOnAxis(series, model.AxisDistance, axis)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{100, 180, 185, 190, 220}, got.Speed, 1e-9)
}

func TestResampleIsDeterministic(t *testing.T) {
	series := basedata.Series(1,
		[]float64{0, 13.37, 42.1, 80.01},
		[]float64{0, 310.5, 1204.9, 2100.3},
		[]float64{87.2, 301.4, 255.7, 312.9})

	first, err := Resample(series, model.AxisDistance, 100)
	require.NoError(t, err)
	second, err := Resample(series, model.AxisDistance, 100)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second),
		"identical inputs must produce identical outputs")
}

func TestResampleClampsOutsideDomain(t *testing.T) {
	series := basedata.Series(1,
		[]float64{0, 40},
		[]float64{50, 150},
		[]float64{120, 180})
	axis := []float64{0, 100, 200}

	got, err := ResampleOnAxis(series, model.AxisDistance, axis)
	require.NoError(t, err)

	// below and above the sampled range the endpoint values hold
	assert.InDeltaSlice(t, []float64{120, 150, 180}, got.Speed, 1e-9)
}

func TestResampleQuantizesDiscreteChannels(t *testing.T) {
	series := basedata.Series(1,
		[]float64{0, 40},
		[]float64{0, 100},
		[]float64{100, 200})
	series.Brake = []float64{0, 1}
	series.Gear = []float64{2, 4}

	got, err := Resample(series, model.AxisDistance, 5)
	require.NoError(t, err)

	assert.Equal(t, []bool{false, false, false, true, true}, got.Brake,
		"brake activates strictly above the 0.5 threshold")
	assert.Equal(t, []int{2, 3, 3, 4, 4}, got.Gear)
}

func TestResampleDuplicateAxisKeepsLastSample(t *testing.T) {
	series := basedata.Series(1,
		[]float64{0, 20, 20, 40},
		[]float64{0, 100, 100, 200},
		[]float64{100, 150, 160, 200})

	got, err := Resample(series, model.AxisDistance, 3)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff([]float64{0, 100, 200}, got.Axis))
	assert.InDeltaSlice(t, []float64{100, 160, 200}, got.Speed, 1e-9)
}

func TestResampleAxisTime(t *testing.T) {
	series := basedata.Series(1,
		[]float64{0, 40, 80},
		[]float64{0, 100, 200},
		[]float64{100, 150, 200})

	got, err := Resample(series, model.AxisTime, 5)
	require.NoError(t, err)

	assert.Equal(t, model.AxisTime, got.AxisKind)
	assert.Empty(t, cmp.Diff(got.Axis, got.Time),
		"on the time axis the time channel is the axis itself")
}

func TestResampleDoesNotAliasCallerAxis(t *testing.T) {
	series := basedata.Series(1,
		[]float64{0, 40},
		[]float64{0, 100},
		[]float64{100, 200})
	axis := []float64{0, 50, 100}

	got, err := ResampleOnAxis(series, model.AxisDistance, axis)
	require.NoError(t, err)
	axis[1] = -1

	assert.Empty(t, cmp.Diff([]float64{0, 50, 100}, got.Axis))
}

func TestResampleErrors(t *testing.T) {
	valid := basedata.Series(1,
		[]float64{0, 40}, []float64{0, 100}, []float64{100, 200})
	degenerate := basedata.Series(1,
		[]float64{0, 10, 20}, []float64{50, 50, 50}, []float64{100, 110, 120})

	testcases := []struct {
		name      string
		series    *model.TelemetrySeries
		numPoints int
		want      error
	}{
		{name: "too few points", series: valid, numPoints: 1,
			want: ErrTooFewPoints},
		{name: "nil series", series: nil, numPoints: 5,
			want: ErrInsufficientData},
		{name: "single sample", numPoints: 5,
			series: basedata.Series(1,
				[]float64{0}, []float64{0}, []float64{100}),
			want: ErrInsufficientData},
		{name: "degenerate axis", series: degenerate, numPoints: 5,
			want: ErrInsufficientData},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resample(tc.series, model.AxisDistance, tc.numPoints)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
