package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/frc-sh/scores-api/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	DBURL string

	TBABaseURL               string
	TBAAuthKey               string
	TBATimeout               time.Duration
	TBAMaxRetries            int
	TBACircuitEnabled        bool
	TBACircuitFailureCount   int
	TBACircuitOpenTimeout    time.Duration
	TBACircuitHalfOpenMaxReq int

	FRCBaseURL               string
	FRCUsername              string
	FRCAPIKey                string
	FRCTimeout               time.Duration
	FRCMaxRetries            int
	FRCCircuitEnabled        bool
	FRCCircuitFailureCount   int
	FRCCircuitOpenTimeout    time.Duration
	FRCCircuitHalfOpenMaxReq int

	EventSyncInterval time.Duration
	MatchSyncInterval time.Duration
	MatchSyncWorkers  int

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "scores-api"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DBURL:          strings.TrimSpace(getEnv("DB_URL", "")),
		TBABaseURL:     strings.TrimSpace(getEnv("TBA_BASE_URL", "")),
		TBAAuthKey:     strings.TrimSpace(getEnv("TBA_AUTH_KEY", "")),
		FRCBaseURL:     strings.TrimSpace(getEnv("FRC_EVENTS_BASE_URL", "")),
		FRCUsername:    strings.TrimSpace(getEnv("FRC_EVENTS_USERNAME", "")),
		FRCAPIKey:      strings.TrimSpace(getEnv("FRC_EVENTS_API_KEY", "")),
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.TBAAuthKey == "" {
		return Config{}, fmt.Errorf("TBA_AUTH_KEY is required")
	}
	if cfg.FRCUsername == "" || cfg.FRCAPIKey == "" {
		return Config{}, fmt.Errorf("FRC_EVENTS_USERNAME and FRC_EVENTS_API_KEY are required")
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("HTTP_WRITE_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.TBATimeout, err = getEnvAsDuration("TBA_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TBAMaxRetries, err = getEnvAsInt("TBA_MAX_RETRIES", 2); err != nil {
		return Config{}, fmt.Errorf("parse TBA_MAX_RETRIES: %w", err)
	}
	if cfg.TBACircuitEnabled, err = getEnvAsBool("TBA_CIRCUIT_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.TBACircuitFailureCount, err = getEnvAsInt("TBA_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, fmt.Errorf("parse TBA_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.TBACircuitOpenTimeout, err = getEnvAsDuration("TBA_CIRCUIT_OPEN_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TBACircuitHalfOpenMaxReq, err = getEnvAsInt("TBA_CIRCUIT_HALF_OPEN_MAX_REQ", 2); err != nil {
		return Config{}, fmt.Errorf("parse TBA_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	if cfg.FRCTimeout, err = getEnvAsDuration("FRC_EVENTS_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.FRCMaxRetries, err = getEnvAsInt("FRC_EVENTS_MAX_RETRIES", 2); err != nil {
		return Config{}, fmt.Errorf("parse FRC_EVENTS_MAX_RETRIES: %w", err)
	}
	if cfg.FRCCircuitEnabled, err = getEnvAsBool("FRC_EVENTS_CIRCUIT_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.FRCCircuitFailureCount, err = getEnvAsInt("FRC_EVENTS_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, fmt.Errorf("parse FRC_EVENTS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.FRCCircuitOpenTimeout, err = getEnvAsDuration("FRC_EVENTS_CIRCUIT_OPEN_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.FRCCircuitHalfOpenMaxReq, err = getEnvAsInt("FRC_EVENTS_CIRCUIT_HALF_OPEN_MAX_REQ", 2); err != nil {
		return Config{}, fmt.Errorf("parse FRC_EVENTS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	if cfg.EventSyncInterval, err = getEnvAsDuration("EVENT_SYNC_INTERVAL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.MatchSyncInterval, err = getEnvAsDuration("MATCH_SYNC_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.MatchSyncWorkers, err = getEnvAsInt("MATCH_SYNC_WORKERS", 4); err != nil {
		return Config{}, fmt.Errorf("parse MATCH_SYNC_WORKERS: %w", err)
	}
	if cfg.MatchSyncWorkers < 1 {
		return Config{}, fmt.Errorf("MATCH_SYNC_WORKERS must be >= 1")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case EnvDev, EnvStage, EnvProd:
		return v, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}
