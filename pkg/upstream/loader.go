// Package upstream defines the collaborator boundary towards the timing-data
// provider. The core never talks to the provider directly; it consumes the
// typed records defined here. Implementations apply default substitution for
// missing fields once, at ingestion.
package upstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
)

// LoadFlags selects which parts of a session get loaded. Requesting fewer
// parts is both faster and sometimes the only option (not all fields are
// available for every session/year), so loaders must fetch exactly this set.
type LoadFlags struct {
	Laps      bool
	Telemetry bool
	Weather   bool
	Messages  bool
}

// Key returns the canonical textual form used in cache keys. The field order
// is fixed, so two logically identical flag sets always collide.
func (f LoadFlags) Key() string {
	return fmt.Sprintf("laps=%t_messages=%t_telemetry=%t_weather=%t",
		f.Laps, f.Messages, f.Telemetry, f.Weather)
}

// Lap exposes one lap of a driver. Telemetry extraction may fail per lap
// without affecting the rest of the session.
type Lap interface {
	Number() int
	TimeSeconds() float64 // 0 if the lap has no valid time
	Telemetry() (*model.TelemetrySeries, error)
}

// DriverResult carries the classified result record for one driver.
type DriverResult struct {
	Code      string
	Name      string
	Team      string
	TeamColor string
}

// Session is the opaque handle returned by a loader.
type Session interface {
	DriverCodes() []string
	// LapsForDriver returns all laps of the driver, empty if unknown.
	LapsForDriver(code string) []Lap
	// Result returns the driver's session result, false if absent.
	Result(code string) (DriverResult, bool)
}

// SessionLoader loads a session from the timing-data provider. It must
// distinguish "not found" from "load failed" via the apperrors taxonomy.
// Retry/backoff policy, if any, lives behind this interface.
type SessionLoader interface {
	Load(
		ctx context.Context,
		year int,
		event, sessionType string,
		flags LoadFlags,
	) (Session, error)
}

const defaultTeamColor = "#CCCCCC"

// NormalizeTeamColor ensures a leading '#' and substitutes the fallback
// color for empty values.
func NormalizeTeamColor(color string) string {
	c := strings.TrimSpace(color)
	if c == "" {
		return defaultTeamColor
	}
	if !strings.HasPrefix(c, "#") {
		c = "#" + c
	}
	return c
}
