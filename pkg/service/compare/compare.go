// Package compare implements the top-level comparison use case: consult the
// computed result cache, on miss run the load/aggregate/resample/delta
// pipeline, populate the cache and return the assembled result. No retries
// happen at this layer.
package compare

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"github.com/mpapenbr/f1telemetry-compare-go/log"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/apperrors"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/processing/aggregate"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/processing/resample"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/upstream"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/resultcache"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/sessioncache"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/metrics"
)

const (
	defaultNumPoints = 1000
	// telemetry exists upstream only from this season onwards
	minTelemetryYear = 2011
)

// Request describes one comparison. Lap numbers of 0 select each driver's
// fastest lap. NumPoints of 0 selects the configured default.
type Request struct {
	Year        int
	Event       string
	SessionType string
	Driver1     string
	Driver2     string
	Lap1        int
	Lap2        int
	NumPoints   int
}

type (
	Option  func(*Service)
	Service struct {
		sessions  *sessioncache.Cache
		results   *resultcache.Cache
		agg       *aggregate.Aggregator
		numPoints int
		l         *log.Logger
	}
)

func WithDefaultNumPoints(numPoints int) Option {
	return func(s *Service) {
		if numPoints > 1 {
			s.numPoints = numPoints
		}
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(s *Service) {
		s.l = arg
	}
}

//nolint:whitespace // can't make both editor and linter happy
func InitCompareService(
	sessions *sessioncache.Cache,
	results *resultcache.Cache,
	agg *aggregate.Aggregator,
	opts ...Option,
) *Service {
	ret := &Service{
		sessions:  sessions,
		results:   results,
		agg:       agg,
		numPoints: defaultNumPoints,
		l:         log.Default().Named("compare"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// CompareTelemetry runs the full comparison pipeline for two drivers.
// Driver1 is the delta baseline.
//
//nolint:funlen // sequential pipeline
func (s *Service) CompareTelemetry(
	ctx context.Context, req Request,
) (*model.ComparisonResult, error) {
	start := time.Now()
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	cacheKey := resultcache.Key{
		Year:        req.Year,
		Event:       req.Event,
		SessionType: req.SessionType,
		DataKind: fmt.Sprintf("comparison_%s_%s_%d_%d_%d",
			req.Driver1, req.Driver2, req.Lap1, req.Lap2, req.NumPoints),
	}
	var cached model.ComparisonResult
	if s.results.Get(cacheKey, &cached) {
		s.l.Debug("comparison served from cache", log.Any("key", cacheKey))
		return &cached, nil
	}

	session, err := s.sessions.GetOrLoad(ctx,
		req.Year, req.Event, req.SessionType,
		upstream.LoadFlags{Laps: true, Telemetry: true})
	if err != nil {
		return nil, err
	}

	series := s.agg.AggregateMany(ctx, session,
		[]string{req.Driver1, req.Driver2}, true)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	series1, ok := series[req.Driver1]
	if !ok {
		return nil, apperrors.NotFoundf("driver",
			"driver %q not found in %s %d %s",
			req.Driver1, req.Event, req.Year, req.SessionType)
	}
	series2, ok := series[req.Driver2]
	if !ok {
		return nil, apperrors.NotFoundf("driver",
			"driver %q not found in %s %d %s",
			req.Driver2, req.Event, req.Year, req.SessionType)
	}

	lap1, err := selectLap(session, req.Driver1, req.Lap1)
	if err != nil {
		return nil, err
	}
	lap2, err := selectLap(session, req.Driver2, req.Lap2)
	if err != nil {
		return nil, err
	}

	lapSeries1 := series1.FilterByLap(lap1.Number())
	lapSeries2 := series2.FilterByLap(lap2.Number())
	if lapSeries1.Len() < 2 {
		return nil, s.telemetryUnavailable(req, req.Driver1)
	}
	if lapSeries2.Len() < 2 {
		return nil, s.telemetryUnavailable(req, req.Driver2)
	}

	// both laps share one distance axis spanning the longer lap; the
	// shorter lap clamps at its final values (endpoint clamp)
	maxDistance := max(
		floats.Max(lapSeries1.Distance), floats.Max(lapSeries2.Distance))
	axis := make([]float64, req.NumPoints)
	floats.Span(axis, 0, maxDistance)

	uniform1, err := resample.ResampleOnAxis(lapSeries1, model.AxisDistance, axis)
	if err != nil {
		return nil, s.mapResampleErr(req, req.Driver1, err)
	}
	uniform2, err := resample.ResampleOnAxis(lapSeries2, model.AxisDistance, axis)
	if err != nil {
		return nil, s.mapResampleErr(req, req.Driver2, err)
	}

	deltaTime, err := resample.Delta(uniform1, uniform2)
	if err != nil {
		return nil, err
	}

	summary1 := buildLapSummary(session, req.Driver1, lap1)
	summary2 := buildLapSummary(session, req.Driver2, lap2)

	result := &model.ComparisonResult{
		Driver1:   summary1,
		Driver2:   summary2,
		AxisKind:  model.AxisDistance,
		Axis:      uniform1.Axis,
		Channels1: model.ChannelsFromUniform(uniform1),
		Channels2: model.ChannelsFromUniform(uniform2),
		DeltaTime: deltaTime,
		LapTimeDelta: math.Abs(
			summary1.LapTimeSeconds - summary2.LapTimeSeconds),
		MaxSpeedDelta: math.Abs(
			floats.Max(uniform1.Speed) - floats.Max(uniform2.Speed)),
		DataPoints: req.NumPoints,
	}

	if err := s.results.Put(cacheKey, result); err != nil {
		// a failed cache write must not fail the comparison
		s.l.Error("could not cache comparison result", log.ErrorField(err))
	}
	metrics.ComparisonDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

// ListDrivers returns the participants of a session. Only lap data is
// requested from upstream; telemetry is not needed for the listing.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Service) ListDrivers(
	ctx context.Context, year int, event, sessionType string,
) ([]model.DriverInfo, error) {
	session, err := s.sessions.GetOrLoad(ctx, year, event, sessionType,
		upstream.LoadFlags{Laps: true})
	if err != nil {
		return nil, err
	}
	return lo.Map(session.DriverCodes(),
		func(code string, _ int) model.DriverInfo {
			info := model.DriverInfo{
				Code:      code,
				Name:      code,
				Team:      "Unknown",
				TeamColor: upstream.NormalizeTeamColor(""),
			}
			if res, ok := session.Result(code); ok {
				if res.Name != "" {
					info.Name = res.Name
				}
				if res.Team != "" {
					info.Team = res.Team
				}
				info.TeamColor = upstream.NormalizeTeamColor(res.TeamColor)
			}
			return info
		}), nil
}

func (s *Service) validate(req *Request) error {
	if req.NumPoints == 0 {
		req.NumPoints = s.numPoints
	}
	if req.NumPoints < 2 {
		return apperrors.Validationf("numPoints must be at least 2, got %d",
			req.NumPoints)
	}
	if req.Driver1 == "" || req.Driver2 == "" {
		return apperrors.Validationf("both driver codes are required")
	}
	normalized, ok := model.NormalizeSessionType(req.SessionType)
	if !ok {
		return apperrors.Validationf(
			"invalid session type: %q. Valid types: FP1, FP2, FP3, Q, S, SS, SQ, R",
			req.SessionType)
	}
	req.SessionType = normalized
	if req.Year < minTelemetryYear {
		return &apperrors.TelemetryUnavailableError{
			Year:        req.Year,
			Event:       req.Event,
			SessionType: req.SessionType,
		}
	}
	return nil
}

func (s *Service) telemetryUnavailable(
	req Request, driver string,
) *apperrors.TelemetryUnavailableError {
	return &apperrors.TelemetryUnavailableError{
		Year:        req.Year,
		Event:       req.Event,
		SessionType: req.SessionType,
		Reason:      fmt.Sprintf("no telemetry for driver %s", driver),
	}
}

func (s *Service) mapResampleErr(req Request, driver string, err error) error {
	if errors.Is(err, resample.ErrInsufficientData) {
		return s.telemetryUnavailable(req, driver)
	}
	return err
}

// selectLap picks the requested lap number or, for 0, the fastest lap
// (minimum valid lap time).
//
//nolint:whitespace // can't make both editor and linter happy
func selectLap(
	session upstream.Session, driver string, lapNumber int,
) (upstream.Lap, error) {
	laps := session.LapsForDriver(driver)
	if lapNumber > 0 {
		for _, lap := range laps {
			if lap.Number() == lapNumber {
				return lap, nil
			}
		}
		return nil, apperrors.NotFoundf("lap",
			"lap %d not found for driver %q", lapNumber, driver)
	}
	var fastest upstream.Lap
	for _, lap := range laps {
		if lap.TimeSeconds() <= 0 {
			continue
		}
		if fastest == nil || lap.TimeSeconds() < fastest.TimeSeconds() {
			fastest = lap
		}
	}
	if fastest == nil {
		return nil, apperrors.NotFoundf("lap",
			"no timed lap found for driver %q", driver)
	}
	return fastest, nil
}

func buildLapSummary(
	session upstream.Session, driver string, lap upstream.Lap,
) model.LapSummary {
	team := "Unknown"
	color := upstream.NormalizeTeamColor("")
	if res, ok := session.Result(driver); ok {
		if res.Team != "" {
			team = res.Team
		}
		color = upstream.NormalizeTeamColor(res.TeamColor)
	}
	return model.LapSummary{
		Driver:         driver,
		Team:           team,
		TeamColor:      color,
		LapNumber:      lap.Number(),
		LapTimeSeconds: lap.TimeSeconds(),
	}
}
