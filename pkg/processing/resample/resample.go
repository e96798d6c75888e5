// Package resample aligns irregularly-sampled telemetry onto a uniform axis.
// The engine is stateless and pure: identical inputs always produce
// identical outputs, which cache correctness relies on.
package resample

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
)

var (
	// ErrInsufficientData signals a degenerate input (fewer than two
	// distinct samples on the requested axis).
	ErrInsufficientData = errors.New("insufficient data for resampling")
	// ErrTooFewPoints signals an invalid target resolution.
	ErrTooFewPoints = errors.New("numPoints must be at least 2")
)

// Resample interpolates every channel of the series onto a uniform axis of
// numPoints samples spanning [0, max(axis)]. Continuous channels are
// piecewise-linearly interpolated with endpoint clamping; discrete channels
// are interpolated as continuous values and then quantized (brake via 0.5
// threshold, gear/drs/lap number via rounding).
//
//nolint:whitespace // can't make both editor and linter happy
func Resample(
	series *model.TelemetrySeries,
	axisKind model.AxisKind,
	numPoints int,
) (*model.UniformSeries, error) {
	if numPoints < 2 {
		return nil, ErrTooFewPoints
	}
	if series == nil || series.Len() < 2 {
		return nil, ErrInsufficientData
	}
	dom := newDomain(series.Axis(axisKind))
	if dom.len() < 2 {
		return nil, ErrInsufficientData
	}
	axis := make([]float64, numPoints)
	floats.Span(axis, 0, dom.maxValue())
	return resampleOnAxis(series, axisKind, axis, dom)
}

// ResampleOnAxis interpolates the series onto a caller-provided uniform
// axis. Used when two laps must share one axis; values outside the series'
// own domain clamp to the nearest endpoint.
//
//nolint:whitespace // can't make both editor and linter happy
func ResampleOnAxis(
	series *model.TelemetrySeries,
	axisKind model.AxisKind,
	axis []float64,
) (*model.UniformSeries, error) {
	if len(axis) < 2 {
		return nil, ErrTooFewPoints
	}
	if series == nil || series.Len() < 2 {
		return nil, ErrInsufficientData
	}
	dom := newDomain(series.Axis(axisKind))
	if dom.len() < 2 {
		return nil, ErrInsufficientData
	}
	return resampleOnAxis(series, axisKind, axis, dom)
}

//nolint:funlen,whitespace // sequential channel handling
func resampleOnAxis(
	series *model.TelemetrySeries,
	axisKind model.AxisKind,
	axis []float64,
	dom *domain,
) (*model.UniformSeries, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("invalid series: %w", err)
	}

	continuous := func(channel []float64) ([]float64, error) {
		return dom.interpolate(channel, axis)
	}

	timeVals, err := continuous(series.Time)
	if err != nil {
		return nil, err
	}
	if axisKind == model.AxisTime {
		// the axis itself is the time domain
		timeVals = append([]float64(nil), axis...)
	}
	x, err := continuous(series.X)
	if err != nil {
		return nil, err
	}
	y, err := continuous(series.Y)
	if err != nil {
		return nil, err
	}
	speed, err := continuous(series.Speed)
	if err != nil {
		return nil, err
	}
	throttle, err := continuous(series.Throttle)
	if err != nil {
		return nil, err
	}
	rpm, err := continuous(series.RPM)
	if err != nil {
		return nil, err
	}
	brakeRaw, err := continuous(series.Brake)
	if err != nil {
		return nil, err
	}
	gearRaw, err := continuous(series.Gear)
	if err != nil {
		return nil, err
	}
	drsRaw, err := continuous(series.DRS)
	if err != nil {
		return nil, err
	}
	lapRaw, err := continuous(series.LapNumber)
	if err != nil {
		return nil, err
	}

	return &model.UniformSeries{
		AxisKind:  axisKind,
		Axis:      append([]float64(nil), axis...),
		Time:      timeVals,
		X:         x,
		Y:         y,
		Speed:     speed,
		Throttle:  throttle,
		RPM:       rpm,
		Brake:     quantizeBool(brakeRaw),
		Gear:      quantizeInt(gearRaw),
		DRS:       quantizeInt(drsRaw),
		LapNumber: quantizeInt(lapRaw),
	}, nil
}

// domain holds the sorted, duplicate-collapsed interpolation domain together
// with the sample order needed to align channel values.
type domain struct {
	xs    []float64 // strictly increasing
	order []int     // source index per retained sample
}

// newDomain sorts the axis values (stable) and collapses duplicate axis
// values keeping the last sample, so piecewise-linear fitting sees a
// strictly increasing domain.
func newDomain(axisValues []float64) *domain {
	n := len(axisValues)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return axisValues[idx[i]] < axisValues[idx[j]]
	})

	xs := make([]float64, 0, n)
	order := make([]int, 0, n)
	for _, srcIdx := range idx {
		v := axisValues[srcIdx]
		if len(xs) > 0 && xs[len(xs)-1] == v {
			// duplicate axis value: keep the later sample
			order[len(order)-1] = srcIdx
			continue
		}
		xs = append(xs, v)
		order = append(order, srcIdx)
	}
	return &domain{xs: xs, order: order}
}

func (d *domain) len() int { return len(d.xs) }

func (d *domain) maxValue() float64 { return d.xs[len(d.xs)-1] }

// interpolate fits a piecewise-linear predictor over the domain and
// evaluates it at the target axis. Values outside the domain clamp to the
// nearest endpoint.
func (d *domain) interpolate(channel, axis []float64) ([]float64, error) {
	ys := make([]float64, len(d.order))
	for i, srcIdx := range d.order {
		ys[i] = channel[srcIdx]
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(d.xs, ys); err != nil {
		return nil, fmt.Errorf("fit interpolator: %w", err)
	}
	ret := make([]float64, len(axis))
	for i, v := range axis {
		ret[i] = pl.Predict(v)
	}
	return ret, nil
}

func quantizeBool(values []float64) []bool {
	ret := make([]bool, len(values))
	for i, v := range values {
		ret[i] = v > 0.5
	}
	return ret
}

func quantizeInt(values []float64) []int {
	ret := make([]int, len(values))
	for i, v := range values {
		ret[i] = int(math.Round(v))
	}
	return ret
}
