package resample

import (
	"errors"

	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
)

// ErrAxisMismatch signals that the two series were not resampled onto the
// same axis.
var ErrAxisMismatch = errors.New("series must share the same axis")

// Delta computes the signed time difference between two series that were
// already resampled onto the same axis: delta[i] = timeB[i] - timeA[i].
// A is the baseline; positive values mean B is behind A at that axis
// position. No further interpolation happens here.
func Delta(seriesA, seriesB *model.UniformSeries) ([]float64, error) {
	if seriesA.Len() != seriesB.Len() || seriesA.AxisKind != seriesB.AxisKind {
		return nil, ErrAxisMismatch
	}
	ret := make([]float64, seriesA.Len())
	for i := range ret {
		ret[i] = seriesB.Time[i] - seriesA.Time[i]
	}
	return ret, nil
}
