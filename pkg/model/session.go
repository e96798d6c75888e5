package model

import "strings"

// DriverInfo describes a session participant.
type DriverInfo struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Team      string `json:"team"`
	TeamColor string `json:"teamColor"`
}

//nolint:gochecknoglobals // lookup table
var sessionTypeAliases = map[string]string{
	"fp1": "FP1", "1": "FP1", "practice1": "FP1",
	"fp2": "FP2", "2": "FP2", "practice2": "FP2",
	"fp3": "FP3", "3": "FP3", "practice3": "FP3",
	"q": "Q", "qualifying": "Q", "4": "Q",
	"s": "S", "sprint": "S",
	"ss": "SS", "sprint_shootout": "SS",
	"sq": "SQ", "sprint_qualifying": "SQ",
	"r": "R", "race": "R", "5": "R",
}

// ValidSessionTypes lists the canonical session type identifiers.
var ValidSessionTypes = []string{"FP1", "FP2", "FP3", "Q", "S", "SS", "SQ", "R"}

// NormalizeSessionType maps common aliases onto the canonical session type.
// The second return value is false for unknown types.
func NormalizeSessionType(sessionType string) (string, bool) {
	norm, ok := sessionTypeAliases[strings.ToLower(strings.TrimSpace(sessionType))]
	return norm, ok
}

// NormalizeEventID canonicalizes free-text event identifiers so that
// equivalent requests map to the same cache key.
func NormalizeEventID(event string) string {
	e := strings.ToLower(strings.TrimSpace(event))
	e = strings.ReplaceAll(e, " ", "_")
	e = strings.ReplaceAll(e, "/", "_")
	return e
}
