package model

// LapSummary describes the lap a driver contributes to a comparison.
type LapSummary struct {
	Driver         string  `json:"driver"`
	Team           string  `json:"team"`
	TeamColor      string  `json:"teamColor"`
	LapNumber      int     `json:"lapNumber"`
	LapTimeSeconds float64 `json:"lapTimeSeconds"`
}

// ComparisonChannels holds one driver's channel arrays aligned on the shared
// comparison axis.
type ComparisonChannels struct {
	Time     []float64 `json:"time"`
	X        []float64 `json:"x"`
	Y        []float64 `json:"y"`
	Speed    []float64 `json:"speed"`
	Throttle []float64 `json:"throttle"`
	RPM      []float64 `json:"rpm"`
	Brake    []bool    `json:"brake"`
	Gear     []int     `json:"gear"`
	DRS      []int     `json:"drs"`
}

// ComparisonResult is the fully assembled two-driver comparison.
// DeltaTime follows the convention delta[i] = time2[i] - time1[i]:
// driver1 is the baseline, positive values mean driver2 is behind.
type ComparisonResult struct {
	Driver1       LapSummary         `json:"driver1"`
	Driver2       LapSummary         `json:"driver2"`
	AxisKind      AxisKind           `json:"axisKind"`
	Axis          []float64          `json:"axis"`
	Channels1     ComparisonChannels `json:"channels1"`
	Channels2     ComparisonChannels `json:"channels2"`
	DeltaTime     []float64          `json:"deltaTime"`
	LapTimeDelta  float64            `json:"lapTimeDelta"`
	MaxSpeedDelta float64            `json:"maxSpeedDelta"`
	DataPoints    int                `json:"dataPoints"`
}

// ChannelsFromUniform copies the channel arrays of a resampled series.
func ChannelsFromUniform(u *UniformSeries) ComparisonChannels {
	return ComparisonChannels{
		Time:     u.Time,
		X:        u.X,
		Y:        u.Y,
		Speed:    u.Speed,
		Throttle: u.Throttle,
		RPM:      u.RPM,
		Brake:    u.Brake,
		Gear:     u.Gear,
		DRS:      u.DRS,
	}
}
