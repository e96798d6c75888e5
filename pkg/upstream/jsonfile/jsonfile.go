// Package jsonfile provides a SessionLoader backed by recorded session
// files on disk. One JSON document per session, named
// {year}_{event}_{sessionType}.json with the event id normalized. Default
// substitution for missing channels happens here, once, at ingestion.
package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/f1telemetry-compare-go/log"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/apperrors"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/upstream"
)

type (
	Option func(*Loader)
	Loader struct {
		dir string
		l   *log.Logger
	}
)

func WithLogger(arg *log.Logger) Option {
	return func(ldr *Loader) {
		ldr.l = arg
	}
}

func New(dir string, opts ...Option) *Loader {
	ret := &Loader{dir: dir, l: log.Default().Named("upstream.jsonfile")}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// on-disk document shapes

type sessionDoc struct {
	Year               int         `json:"year"`
	Event              string      `json:"event"`
	SessionType        string      `json:"sessionType"`
	TelemetryAvailable *bool       `json:"telemetryAvailable"`
	Results            []resultDoc `json:"results"`
	Laps               []lapDoc    `json:"laps"`
}

type resultDoc struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Team      string `json:"team"`
	TeamColor string `json:"teamColor"`
}

type lapDoc struct {
	Driver      string        `json:"driver"`
	Number      int           `json:"number"`
	TimeSeconds float64       `json:"timeSeconds"`
	Telemetry   *telemetryDoc `json:"telemetry"`
}

type telemetryDoc struct {
	Time     []float64 `json:"time"`
	Distance []float64 `json:"distance"`
	X        []float64 `json:"x"`
	Y        []float64 `json:"y"`
	Speed    []float64 `json:"speed"`
	Throttle []float64 `json:"throttle"`
	Brake    []float64 `json:"brake"`
	Gear     []float64 `json:"gear"`
	RPM      []float64 `json:"rpm"`
	DRS      []float64 `json:"drs"`
}

//nolint:whitespace // can't make both editor and linter happy
func (ldr *Loader) Load(
	_ context.Context,
	year int,
	event, sessionType string,
	flags upstream.LoadFlags,
) (upstream.Session, error) {
	filename := fmt.Sprintf("%d_%s_%s.json",
		year, model.NormalizeEventID(event), sessionType)
	path := filepath.Join(ldr.dir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFoundf("session",
				"session %q not found for %s in %d", sessionType, event, year)
		}
		return nil, &apperrors.LoadFailureError{
			Year: year, Event: event, SessionType: sessionType, Err: err,
		}
	}
	var doc sessionDoc
	if err := oj.Unmarshal(data, &doc); err != nil {
		return nil, &apperrors.LoadFailureError{
			Year: year, Event: event, SessionType: sessionType, Err: err,
		}
	}
	if flags.Telemetry &&
		doc.TelemetryAvailable != nil && !*doc.TelemetryAvailable {
		return nil, &apperrors.TelemetryUnavailableError{
			Year: year, Event: event, SessionType: sessionType,
			Reason: "session was recorded without telemetry",
		}
	}

	ldr.l.Debug("loaded session file",
		log.String("path", path), log.Int("laps", len(doc.Laps)))
	return newSession(&doc, flags), nil
}

type session struct {
	codes   []string
	laps    map[string][]upstream.Lap
	results map[string]upstream.DriverResult
}

func newSession(doc *sessionDoc, flags upstream.LoadFlags) *session {
	ret := &session{
		laps:    map[string][]upstream.Lap{},
		results: map[string]upstream.DriverResult{},
	}
	for _, res := range doc.Results {
		ret.results[res.Code] = upstream.DriverResult{
			Code:      res.Code,
			Name:      res.Name,
			Team:      res.Team,
			TeamColor: upstream.NormalizeTeamColor(res.TeamColor),
		}
	}
	if flags.Laps {
		for _, lapEntry := range doc.Laps {
			ret.laps[lapEntry.Driver] = append(ret.laps[lapEntry.Driver],
				newLap(&lapEntry, flags.Telemetry))
		}
	}
	seen := map[string]bool{}
	for _, res := range doc.Results {
		if !seen[res.Code] {
			seen[res.Code] = true
			ret.codes = append(ret.codes, res.Code)
		}
	}
	for _, lapEntry := range doc.Laps {
		if !seen[lapEntry.Driver] {
			seen[lapEntry.Driver] = true
			ret.codes = append(ret.codes, lapEntry.Driver)
		}
	}
	return ret
}

func (s *session) DriverCodes() []string { return s.codes }

func (s *session) LapsForDriver(code string) []upstream.Lap {
	return s.laps[code]
}

func (s *session) Result(code string) (upstream.DriverResult, bool) {
	res, ok := s.results[code]
	return res, ok
}

type lap struct {
	number      int
	timeSeconds float64
	telemetry   *model.TelemetrySeries
}

// newLap applies default substitution once: missing channels become
// zero-filled arrays matching the time channel length.
func newLap(doc *lapDoc, withTelemetry bool) *lap {
	ret := &lap{number: doc.Number, timeSeconds: doc.TimeSeconds}
	// do not over-fetch: telemetry stays nil unless requested
	if withTelemetry && doc.Telemetry != nil {
		n := len(doc.Telemetry.Time)
		fill := func(ch []float64) []float64 {
			if len(ch) == n {
				return ch
			}
			return make([]float64, n)
		}
		lapNumbers := make([]float64, n)
		for i := range lapNumbers {
			lapNumbers[i] = float64(doc.Number)
		}
		ret.telemetry = &model.TelemetrySeries{
			Time:      doc.Telemetry.Time,
			Distance:  fill(doc.Telemetry.Distance),
			X:         fill(doc.Telemetry.X),
			Y:         fill(doc.Telemetry.Y),
			Speed:     fill(doc.Telemetry.Speed),
			Throttle:  fill(doc.Telemetry.Throttle),
			Brake:     fill(doc.Telemetry.Brake),
			Gear:      fill(doc.Telemetry.Gear),
			RPM:       fill(doc.Telemetry.RPM),
			DRS:       fill(doc.Telemetry.DRS),
			LapNumber: lapNumbers,
		}
	}
	return ret
}

func (l *lap) Number() int { return l.number }

func (l *lap) TimeSeconds() float64 { return l.timeSeconds }

func (l *lap) Telemetry() (*model.TelemetrySeries, error) {
	if l.telemetry == nil {
		return nil, fmt.Errorf("lap %d has no telemetry", l.number)
	}
	return l.telemetry, nil
}
