// Package public exposes the comparison results over HTTP. The core does
// not depend on this package; it is one possible result consumer.
package public

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/mpapenbr/f1telemetry-compare-go/log"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/apperrors"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/service/compare"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/resultcache"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/sessioncache"
	"github.com/mpapenbr/f1telemetry-compare-go/version"
)

type (
	Option func(*Server)
	Server struct {
		addr        string
		corsOrigins []string
		compareSvc  *compare.Service
		sessions    *sessioncache.Cache
		results     *resultcache.Cache
		srv         *http.Server
		l           *log.Logger
	}
)

func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(s *Server) {
		s.l = arg
	}
}

//nolint:whitespace // can't make both editor and linter happy
func InitPublicEndpoints(
	addr string,
	compareSvc *compare.Service,
	sessions *sessioncache.Cache,
	results *resultcache.Cache,
	opts ...Option,
) *Server {
	ret := &Server{
		addr:       addr,
		compareSvc: compareSvc,
		sessions:   sessions,
		results:    results,
		l:          log.Default().Named("http"),
	}
	for _, opt := range opts {
		opt(ret)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", ret.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/telemetry/comparison", ret.handleComparison)
	mux.HandleFunc("GET /api/v1/drivers", ret.handleDrivers)
	mux.HandleFunc("GET /api/v1/cache/stats", ret.handleCacheStats)
	mux.HandleFunc("DELETE /api/v1/cache", ret.handleCacheClear)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: ret.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete},
	})
	ret.srv = &http.Server{
		Addr:              addr,
		Handler:           corsHandler.Handler(requestLogger(ret.l, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ret
}

// Start blocks until the server terminates.
func (s *Server) Start() error {
	s.l.Info("http server listening", log.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.l.Error("http shutdown", log.ErrorField(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.FullVersion,
	})
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, apperrors.Validationf("year must be an integer"))
		return
	}
	req := compare.Request{
		Year:        year,
		Event:       q.Get("event"),
		SessionType: q.Get("session"),
		Driver1:     q.Get("driver1"),
		Driver2:     q.Get("driver2"),
		Lap1:        intParam(q.Get("lap1")),
		Lap2:        intParam(q.Get("lap2")),
		NumPoints:   intParam(q.Get("points")),
	}
	result, err := s.compareSvc.CompareTelemetry(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDrivers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, apperrors.Validationf("year must be an integer"))
		return
	}
	drivers, err := s.compareSvc.ListDrivers(
		r.Context(), year, q.Get("event"), q.Get("session"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drivers)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionCache": s.sessions.Stats(),
		"resultCache":  s.results.Stats(),
		"entries":      s.results.Sessions(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	count, err := s.results.Clear()
	if err != nil {
		writeError(w, err)
		return
	}
	s.sessions.Clear()
	writeJSON(w, http.StatusOK, map[string]int{"removedEntries": count})
}

func intParam(value string) int {
	if value == "" {
		return 0
	}
	ret, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return ret
}
