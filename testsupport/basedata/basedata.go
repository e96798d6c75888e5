// Package basedata provides in-memory upstream fakes and telemetry builders
// shared by tests.
package basedata

import (
	"context"
	"sync"

	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/upstream"
)

// Lap is a canned upstream.Lap.
type Lap struct {
	Num    int
	Time   float64
	Series *model.TelemetrySeries
	Err    error // returned by Telemetry when set
}

func (l *Lap) Number() int { return l.Num }

func (l *Lap) TimeSeconds() float64 { return l.Time }

func (l *Lap) Telemetry() (*model.TelemetrySeries, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Series, nil
}

// Session is a canned upstream.Session.
type Session struct {
	Codes   []string
	Laps    map[string][]upstream.Lap
	Results map[string]upstream.DriverResult
}

func (s *Session) DriverCodes() []string { return s.Codes }

func (s *Session) LapsForDriver(code string) []upstream.Lap {
	return s.Laps[code]
}

func (s *Session) Result(code string) (upstream.DriverResult, bool) {
	res, ok := s.Results[code]
	return res, ok
}

// Loader is a scripted upstream.SessionLoader that counts its invocations.
type Loader struct {
	mutex   sync.Mutex
	Session upstream.Session
	Err     error
	calls   int
}

//nolint:whitespace // can't make both editor and linter happy
func (ldr *Loader) Load(
	_ context.Context,
	_ int,
	_, _ string,
	_ upstream.LoadFlags,
) (upstream.Session, error) {
	ldr.mutex.Lock()
	defer ldr.mutex.Unlock()
	ldr.calls++
	if ldr.Err != nil {
		return nil, ldr.Err
	}
	return ldr.Session, nil
}

func (ldr *Loader) Calls() int {
	ldr.mutex.Lock()
	defer ldr.mutex.Unlock()
	return ldr.calls
}

// Series builds a TelemetrySeries where time, distance and speed are given
// and the remaining channels are zero-filled to the same length.
func Series(lapNumber int, times, distances, speeds []float64) *model.TelemetrySeries {
	n := len(times)
	lapNumbers := make([]float64, n)
	for i := range lapNumbers {
		lapNumbers[i] = float64(lapNumber)
	}
	return &model.TelemetrySeries{
		Time:      times,
		Distance:  distances,
		X:         make([]float64, n),
		Y:         make([]float64, n),
		Speed:     speeds,
		Throttle:  make([]float64, n),
		Brake:     make([]float64, n),
		Gear:      make([]float64, n),
		RPM:       make([]float64, n),
		DRS:       make([]float64, n),
		LapNumber: lapNumbers,
	}
}

// TwoDriverSession builds a session with one timed lap per driver, using the
// reference telemetry from the interpolation examples.
func TwoDriverSession() *Session {
	return &Session{
		Codes: []string{"VER", "HAM"},
		Laps: map[string][]upstream.Lap{
			"VER": {&Lap{
				Num: 5, Time: 80.0,
				Series: Series(5,
					[]float64{0, 40, 80},
					[]float64{0, 100, 200},
					[]float64{100, 150, 200}),
			}},
			"HAM": {&Lap{
				Num: 7, Time: 81.5,
				Series: Series(7,
					[]float64{0, 20, 60, 81.5},
					[]float64{0, 50, 150, 200},
					[]float64{100, 180, 190, 220}),
			}},
		},
		Results: map[string]upstream.DriverResult{
			"VER": {
				Code: "VER", Name: "Max Verstappen",
				Team: "Red Bull Racing", TeamColor: "#3671C6",
			},
			"HAM": {
				Code: "HAM", Name: "Lewis Hamilton",
				Team: "Mercedes", TeamColor: "27F4D2",
			},
		},
	}
}
