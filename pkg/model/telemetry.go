package model

import "fmt"

// AxisKind selects the channel used as interpolation domain when resampling.
type AxisKind int

const (
	AxisTime AxisKind = iota
	AxisDistance
)

func (a AxisKind) String() string {
	switch a {
	case AxisTime:
		return "time"
	case AxisDistance:
		return "distance"
	default:
		return fmt.Sprintf("AxisKind(%d)", int(a))
	}
}

// TelemetrySeries holds the raw per-lap (or per-driver concatenated) channel
// data. All channels have equal length. Discrete channels (brake, gear, drs,
// lap number) are kept as float64 here to allow uniform vector operations;
// they are quantized when resampled onto a uniform axis.
type TelemetrySeries struct {
	Time      []float64 // seconds from lap start
	Distance  []float64 // meters
	X         []float64 // track position
	Y         []float64
	Speed     []float64
	Throttle  []float64 // 0-100
	Brake     []float64 // 0/1
	Gear      []float64 // 0-8
	RPM       []float64
	DRS       []float64 // status code
	LapNumber []float64
}

func (s *TelemetrySeries) Len() int {
	return len(s.Time)
}

// Validate checks the equal-length invariant across all channels.
func (s *TelemetrySeries) Validate() error {
	n := len(s.Time)
	for name, ch := range s.channels() {
		if len(ch) != n {
			return fmt.Errorf("channel %s has length %d, want %d", name, len(ch), n)
		}
	}
	return nil
}

// Axis returns the channel acting as interpolation domain for the given kind.
func (s *TelemetrySeries) Axis(kind AxisKind) []float64 {
	if kind == AxisDistance {
		return s.Distance
	}
	return s.Time
}

func (s *TelemetrySeries) channels() map[string][]float64 {
	return map[string][]float64{
		"time":      s.Time,
		"distance":  s.Distance,
		"x":         s.X,
		"y":         s.Y,
		"speed":     s.Speed,
		"throttle":  s.Throttle,
		"brake":     s.Brake,
		"gear":      s.Gear,
		"rpm":       s.RPM,
		"drs":       s.DRS,
		"lapNumber": s.LapNumber,
	}
}

// FilterByLap returns the subset of samples belonging to the given lap number.
func (s *TelemetrySeries) FilterByLap(lapNumber int) *TelemetrySeries {
	ret := &TelemetrySeries{}
	for i := range s.Time {
		if int(s.LapNumber[i]) != lapNumber {
			continue
		}
		ret.Time = append(ret.Time, s.Time[i])
		ret.Distance = append(ret.Distance, s.Distance[i])
		ret.X = append(ret.X, s.X[i])
		ret.Y = append(ret.Y, s.Y[i])
		ret.Speed = append(ret.Speed, s.Speed[i])
		ret.Throttle = append(ret.Throttle, s.Throttle[i])
		ret.Brake = append(ret.Brake, s.Brake[i])
		ret.Gear = append(ret.Gear, s.Gear[i])
		ret.RPM = append(ret.RPM, s.RPM[i])
		ret.DRS = append(ret.DRS, s.DRS[i])
		ret.LapNumber = append(ret.LapNumber, s.LapNumber[i])
	}
	return ret
}

// UniformSeries is the result of resampling a TelemetrySeries onto a uniform
// axis. Continuous channels stay float64, discrete channels are quantized.
type UniformSeries struct {
	AxisKind  AxisKind  `json:"axisKind"`
	Axis      []float64 `json:"axis"`
	Time      []float64 `json:"time"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
	Speed     []float64 `json:"speed"`
	Throttle  []float64 `json:"throttle"`
	RPM       []float64 `json:"rpm"`
	Brake     []bool    `json:"brake"`
	Gear      []int     `json:"gear"`
	DRS       []int     `json:"drs"`
	LapNumber []int     `json:"lapNumber"`
}

func (u *UniformSeries) Len() int {
	return len(u.Axis)
}
