// Package aggregate builds one flat, time-sorted TelemetrySeries per driver
// from that driver's laps. Laps are fetched independently and may arrive out
// of chronological order, so the concatenated channels are sorted once by
// the time channel instead of per lap.
package aggregate

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/mpapenbr/f1telemetry-compare-go/log"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/apperrors"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/upstream"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/metrics"
)

const defaultMaxWorkers = 20

type (
	Option     func(*Aggregator)
	Aggregator struct {
		maxWorkers int
		l          *log.Logger
	}
)

func WithMaxWorkers(maxWorkers int) Option {
	return func(a *Aggregator) {
		if maxWorkers > 0 {
			a.maxWorkers = maxWorkers
		}
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(a *Aggregator) {
		a.l = arg
	}
}

func New(opts ...Option) *Aggregator {
	ret := &Aggregator{
		maxWorkers: defaultMaxWorkers,
		l:          log.Default().Named("aggregate"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// AggregateDriver concatenates all lap telemetry of one driver into a single
// time-sorted series. Laps with empty or unextractable telemetry are skipped;
// a driver without any valid lap yields a not-found error, never an empty
// series. When includeDetailChannels is false the detail channels
// (throttle/brake/gear/rpm/drs) are zero-filled so that all channels keep a
// uniform shape.
//
//nolint:whitespace // can't make both editor and linter happy
func (a *Aggregator) AggregateDriver(
	ctx context.Context,
	session upstream.Session,
	driverCode string,
	includeDetailChannels bool,
) (*model.TelemetrySeries, error) {
	laps := session.LapsForDriver(driverCode)
	if len(laps) == 0 {
		return nil, apperrors.NotFoundf("driver",
			"no laps found for driver %q", driverCode)
	}

	acc := &model.TelemetrySeries{}
	valid := 0
	for _, lap := range laps {
		// cooperative cancellation between lap-processing steps
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tel, err := lap.Telemetry()
		if err != nil {
			a.l.Warn("skipping lap, telemetry extraction failed",
				log.String("driver", driverCode),
				log.Int("lap", lap.Number()),
				log.ErrorField(err))
			continue
		}
		if tel == nil || tel.Len() == 0 {
			a.l.Warn("skipping lap, telemetry empty",
				log.String("driver", driverCode),
				log.Int("lap", lap.Number()))
			continue
		}
		if err := tel.Validate(); err != nil {
			a.l.Warn("skipping lap, inconsistent telemetry",
				log.String("driver", driverCode),
				log.Int("lap", lap.Number()),
				log.ErrorField(err))
			continue
		}
		appendLap(acc, tel, lap.Number(), includeDetailChannels)
		valid++
	}
	if valid == 0 {
		metrics.AggregateFailures.Inc()
		return nil, apperrors.NotFoundf("driver",
			"no valid telemetry data for driver %q", driverCode)
	}

	sortByTime(acc)
	a.l.Debug("aggregated driver",
		log.String("driver", driverCode),
		log.Int("laps", valid),
		log.Int("samples", acc.Len()))
	return acc, nil
}

// AggregateMany processes each driver fully independently on a fixed worker
// pool. Drivers whose aggregation fails are omitted from the result; one bad
// driver never aborts the others.
//
//nolint:whitespace // can't make both editor and linter happy
func (a *Aggregator) AggregateMany(
	ctx context.Context,
	session upstream.Session,
	driverCodes []string,
	includeDetailChannels bool,
) map[string]*model.TelemetrySeries {
	workers := min(a.maxWorkers, runtime.GOMAXPROCS(0), len(driverCodes))
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		code   string
		series *model.TelemetrySeries
	}
	jobs := make(chan string)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range jobs {
				series, err := a.AggregateDriver(
					ctx, session, code, includeDetailChannels)
				if err != nil {
					a.l.Warn("driver aggregation failed",
						log.String("driver", code), log.ErrorField(err))
					continue
				}
				results <- outcome{code: code, series: series}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, code := range driverCodes {
			select {
			case jobs <- code:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	ret := make(map[string]*model.TelemetrySeries, len(driverCodes))
	for res := range results {
		ret[res.code] = res.series
	}
	a.l.Info("aggregation complete",
		log.Int("requested", len(driverCodes)),
		log.Int("succeeded", len(ret)))
	return ret
}

func appendLap(
	acc, tel *model.TelemetrySeries, lapNumber int, includeDetails bool,
) {
	n := tel.Len()
	acc.Time = append(acc.Time, tel.Time...)
	acc.Distance = append(acc.Distance, tel.Distance...)
	acc.X = append(acc.X, tel.X...)
	acc.Y = append(acc.Y, tel.Y...)
	acc.Speed = append(acc.Speed, tel.Speed...)
	if includeDetails {
		acc.Throttle = append(acc.Throttle, tel.Throttle...)
		acc.Brake = append(acc.Brake, tel.Brake...)
		acc.Gear = append(acc.Gear, tel.Gear...)
		acc.RPM = append(acc.RPM, tel.RPM...)
		acc.DRS = append(acc.DRS, tel.DRS...)
	} else {
		// keep a uniform array shape across all channels
		acc.Throttle = append(acc.Throttle, make([]float64, n)...)
		acc.Brake = append(acc.Brake, make([]float64, n)...)
		acc.Gear = append(acc.Gear, make([]float64, n)...)
		acc.RPM = append(acc.RPM, make([]float64, n)...)
		acc.DRS = append(acc.DRS, make([]float64, n)...)
	}
	for range n {
		acc.LapNumber = append(acc.LapNumber, float64(lapNumber))
	}
}

// sortByTime applies one stable sort over all channels, keyed by the time
// channel. Stability keeps the original lap order for identical timestamps
// at lap boundaries.
func sortByTime(s *model.TelemetrySeries) {
	n := s.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return s.Time[order[i]] < s.Time[order[j]]
	})
	s.Time = permute(s.Time, order)
	s.Distance = permute(s.Distance, order)
	s.X = permute(s.X, order)
	s.Y = permute(s.Y, order)
	s.Speed = permute(s.Speed, order)
	s.Throttle = permute(s.Throttle, order)
	s.Brake = permute(s.Brake, order)
	s.Gear = permute(s.Gear, order)
	s.RPM = permute(s.RPM, order)
	s.DRS = permute(s.DRS, order)
	s.LapNumber = permute(s.LapNumber, order)
}

func permute(src []float64, order []int) []float64 {
	ret := make([]float64, len(src))
	for i, idx := range order {
		ret[i] = src[idx]
	}
	return ret
}
