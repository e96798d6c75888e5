package public

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/f1telemetry-compare-go/log"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/apperrors"
)

// requestLogger tags each request with an id and logs method, path, status
// and duration.
func requestLogger(l *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		l.Debug("request",
			log.String("id", reqID),
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Int("status", rec.status),
			log.Duration("duration", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := oj.Marshal(v)
	if err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	case apperrors.IsNotFound(err), apperrors.IsTelemetryUnavailable(err):
		status = http.StatusNotFound
	case apperrors.IsLoadFailure(err):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
