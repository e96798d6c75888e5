package compare

import (
	"fmt"
	"os"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1telemetry-compare-go/log"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/config"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/processing/aggregate"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/service/compare"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/upstream/jsonfile"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/resultcache"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/sessioncache"
)

var (
	year        int
	event       string
	sessionType string
	driver1     string
	driver2     string
	lap1        int
	lap2        int
	logLevel    string
)

func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "compares two drivers' laps and prints the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Season year")
	cmd.Flags().StringVar(&event, "event", "", "Event identifier")
	cmd.Flags().StringVar(&sessionType, "session", "R", "Session type")
	cmd.Flags().StringVar(&driver1, "driver1", "", "First driver code")
	cmd.Flags().StringVar(&driver2, "driver2", "", "Second driver code")
	cmd.Flags().IntVar(&lap1, "lap1", 0,
		"Lap number for the first driver (0 picks the fastest lap)")
	cmd.Flags().IntVar(&lap2, "lap2", 0,
		"Lap number for the second driver (0 picks the fastest lap)")
	cmd.Flags().StringVar(&logLevel, "logLevel", "warn",
		"controls the log level (debug, info, warn, error, fatal)")
	return cmd
}

func runCompare(cmd *cobra.Command) error {
	initLogger()

	loader := jsonfile.New(config.DataDir)
	sessions := sessioncache.New(
		sessioncache.WithCapacity(config.SessionCacheSize),
		sessioncache.WithLoader(loader))
	results, err := resultcache.New(config.CacheDir,
		resultcache.WithMaxBytes(
			int64(config.ResultCacheMaxGB*float64(1<<30))),
		resultcache.WithTTL(
			time.Duration(config.ResultCacheTTLDays)*24*time.Hour))
	if err != nil {
		return err
	}
	agg := aggregate.New(aggregate.WithMaxWorkers(config.MaxWorkers))
	svc := compare.InitCompareService(sessions, results, agg,
		compare.WithDefaultNumPoints(config.InterpolationPoints))

	result, err := svc.CompareTelemetry(cmd.Context(), compare.Request{
		Year:        year,
		Event:       event,
		SessionType: sessionType,
		Driver1:     driver1,
		Driver2:     driver2,
		Lap1:        lap1,
		Lap2:        lap2,
	})
	if err != nil {
		return err
	}
	data, err := oj.Marshal(result, 2)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

func initLogger() {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		level = log.WarnLevel
	}
	log.ResetDefault(log.DevLogger(os.Stderr, level))
}
