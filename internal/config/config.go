package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/strideline/gridiron-live/internal/platform/logging"
)

// AppEnv identifies the deployment environment.
type AppEnv string

const (
	EnvDev   AppEnv = "dev"
	EnvStage AppEnv = "stage"
	EnvProd  AppEnv = "prod"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	AppEnv         AppEnv
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	InternalToken      string

	DBEnabled               bool
	DBURL                   string
	DBDisablePreparedBinary bool

	UptraceEnabled bool
	UptraceDSN     string

	PprofEnabled bool
	PprofAddr    string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	ESPNScoreboardURL         string
	ESPNSummaryURL            string
	ESPNTimeout               time.Duration
	ESPNMaxRetries            int
	ESPNLiveStatusNames       []string
	ESPNCircuitEnabled        bool
	ESPNCircuitFailureCount   int
	ESPNCircuitOpenTimeout    time.Duration
	ESPNCircuitHalfOpenMaxReq int

	PollerEnabled     bool
	PollInterval      time.Duration
	BackoffInitial    time.Duration
	BackoffMultiplier float64
	BackoffMax        time.Duration
	MaxRecentPlays    int
	PollerWorkers     int

	LiveStatuses []string
}

// Load reads configuration from the environment, applying defaults and
// failing fast on values that cannot be parsed.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName:    getEnv("SERVICE_NAME", "gridiron-live-api"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		InternalToken:  getEnv("INTERNAL_TOKEN", ""),

		DBURL: getEnv("DATABASE_URL", ""),

		UptraceDSN: getEnv("UPTRACE_DSN", ""),

		PprofAddr: getEnv("PPROF_ADDR", ":6060"),

		PyroscopeServerAddress:     getEnv("PYROSCOPE_SERVER_ADDRESS", ""),
		PyroscopeAppName:           getEnv("PYROSCOPE_APP_NAME", "gridiron-live-api"),
		PyroscopeAuthToken:         getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeBasicAuthUser:     getEnv("PYROSCOPE_BASIC_AUTH_USER", ""),
		PyroscopeBasicAuthPassword: getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""),

		ESPNScoreboardURL: getEnv("ESPN_SCOREBOARD_URL", ""),
		ESPNSummaryURL:    getEnv("ESPN_SUMMARY_URL", ""),
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", string(EnvDev)))
	if err != nil {
		return Config{}, err
	}
	cfg.AppEnv = appEnv

	logLevel, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = logLevel

	cfg.ReadTimeout, err = getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.WriteTimeout, err = getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg.CORSAllowedOrigins = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS must not be empty")
	}

	cfg.DBEnabled, err = getEnvAsBool("DB_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY", false)
	if err != nil {
		return Config{}, err
	}
	if cfg.DBEnabled && cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when DB_ENABLED=true")
	}

	cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false)
	if err != nil {
		return Config{}, err
	}

	cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	cfg.ESPNTimeout, err = getEnvAsDuration("ESPN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ESPNMaxRetries, err = getEnvAsInt("ESPN_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, err
	}
	cfg.ESPNLiveStatusNames = splitCSV(getEnv("ESPN_LIVE_STATUS_NAMES", "STATUS_IN_PROGRESS,STATUS_HALFTIME,STATUS_END_PERIOD"))
	cfg.ESPNCircuitEnabled, err = getEnvAsBool("ESPN_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.ESPNCircuitFailureCount, err = getEnvAsInt("ESPN_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	cfg.ESPNCircuitOpenTimeout, err = getEnvAsDuration("ESPN_CIRCUIT_OPEN_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ESPNCircuitHalfOpenMaxReq, err = getEnvAsInt("ESPN_CIRCUIT_HALF_OPEN_MAX_REQUESTS", 2)
	if err != nil {
		return Config{}, err
	}

	cfg.PollerEnabled, err = getEnvAsBool("POLLER_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.PollInterval, err = getEnvAsDuration("POLL_INTERVAL", 60*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.BackoffInitial, err = getEnvAsDuration("POLL_BACKOFF_INITIAL", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.BackoffMultiplier, err = getEnvAsFloat("POLL_BACKOFF_MULTIPLIER", 2.0)
	if err != nil {
		return Config{}, err
	}
	if cfg.BackoffMultiplier < 1 {
		return Config{}, fmt.Errorf("POLL_BACKOFF_MULTIPLIER must be >= 1")
	}
	cfg.BackoffMax, err = getEnvAsDuration("POLL_BACKOFF_MAX", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxRecentPlays, err = getEnvAsInt("MAX_RECENT_PLAYS", 10)
	if err != nil {
		return Config{}, err
	}
	if cfg.MaxRecentPlays < 0 {
		return Config{}, fmt.Errorf("MAX_RECENT_PLAYS must be >= 0")
	}
	cfg.PollerWorkers, err = getEnvAsInt("POLLER_WORKERS", 4)
	if err != nil {
		return Config{}, err
	}
	if cfg.PollerWorkers < 1 {
		return Config{}, fmt.Errorf("POLLER_WORKERS must be >= 1")
	}

	cfg.LiveStatuses = splitCSV(getEnv("LIVE_STATUSES", "In Progress,Halftime"))

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(raw string) (logging.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return logging.LevelDebug, nil
	case "info":
		return logging.LevelInfo, nil
	case "warn", "warning":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	default:
		return 0, fmt.Errorf("parse LOG_LEVEL: unknown level %q", raw)
	}
}

func parseAppEnv(raw string) (AppEnv, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "dev", "development", "local":
		return EnvDev, nil
	case "stage", "staging":
		return EnvStage, nil
	case "prod", "production":
		return EnvProd, nil
	default:
		return "", fmt.Errorf("parse APP_ENV: unknown environment %q", raw)
	}
}
