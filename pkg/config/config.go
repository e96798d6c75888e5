package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel            string  // sets the log level (zap log level values)
	LogFormat           string  // text vs json
	HTTPServerAddr      string  // listen addr for the HTTP server
	CORSOrigins         string  // comma separated list of allowed CORS origins
	DataDir             string  // directory containing recorded session data
	CacheDir            string  // directory for the computed result cache
	SessionCacheSize    int     // max number of cached session handles
	ResultCacheMaxGB    float64 // max size of the computed result cache in GB
	ResultCacheTTLDays  int     // time-to-live for computed cache entries in days
	InterpolationPoints int     // number of points for telemetry resampling
	MaxWorkers          int     // cap for parallel per-driver aggregation
)
