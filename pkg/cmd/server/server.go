package server

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1telemetry-compare-go/log"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/config"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/endpoints/public"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/processing/aggregate"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/service/compare"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/upstream/jsonfile"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/resultcache"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/sessioncache"
)

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVar(&config.HTTPServerAddr,
		"addr",
		"localhost:8000",
		"Listen address for the HTTP server")
	cmd.Flags().StringVar(&config.CORSOrigins,
		"cors-origins",
		"http://localhost:3000,http://localhost:5173",
		"Comma separated list of allowed CORS origins")
	cmd.Flags().StringVar(&config.LogLevel,
		"logLevel",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.LogFormat,
		"logFormat",
		"json",
		"controls the log output format")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func initLogger() {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	log.ResetDefault(logger)
}

func startServer() error {
	initLogger()

	log.Debug("Config:",
		log.String("addr", config.HTTPServerAddr),
		log.String("dataDir", config.DataDir),
		log.String("cacheDir", config.CacheDir),
		log.Int("sessionCacheSize", config.SessionCacheSize),
		log.Float64("resultCacheMaxGB", config.ResultCacheMaxGB),
	)

	log.Info("Starting server")
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
		log.Error("server could not be started", log.ErrorField(err))
		return err
	}
	agg := aggregate.New(aggregate.WithMaxWorkers(config.MaxWorkers))
	compareSvc := compare.InitCompareService(sessions, results, agg,
		compare.WithDefaultNumPoints(config.InterpolationPoints))

	srv := public.InitPublicEndpoints(
		config.HTTPServerAddr, compareSvc, sessions, results,
		public.WithCORSOrigins(strings.Split(config.CORSOrigins, ",")))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()
	log.Info("Server started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	select {
	case v := <-sigChan:
		log.Debug("Got signal", log.Any("signal", v))
		srv.Shutdown()
	case err := <-errChan:
		if err != nil {
			log.Error("server terminated with error", log.ErrorField(err))
			return err
		}
	}

	log.Info("Server terminated")
	return nil
}
