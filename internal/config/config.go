package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the server reads.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Relay   RelayConfig
	Session SessionConfig
	Account AccountConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	relay, err := loadRelayConfig()
	if err != nil {
		return nil, err
	}

	sess, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Log:     logCfg,
		Relay:   relay,
		Session: sess,
		Account: AccountConfig{DBPath: strings.TrimSpace(os.Getenv("ACCOUNT_DB_PATH"))},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as given.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig describes process logging.
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Pretty: pretty,
	}, nil
}

// RelayConfig tunes per-connection relay behavior.
type RelayConfig struct {
	SendQueueSize int
	WriteTimeout  time.Duration
}

func loadRelayConfig() (RelayConfig, error) {
	queue := 32
	if override, err := parseOptionalIntEnv("RELAY_SEND_QUEUE"); err != nil {
		return RelayConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return RelayConfig{}, fmt.Errorf("RELAY_SEND_QUEUE must be positive, got %d", *override)
		}
		queue = *override
	}

	writeTimeout, err := parseDurationEnv("RELAY_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return RelayConfig{}, err
	}

	return RelayConfig{SendQueueSize: queue, WriteTimeout: writeTimeout}, nil
}

// SessionConfig controls the idle-session reaper. A zero TTL keeps
// sessions alive until process shutdown.
type SessionConfig struct {
	TTL        time.Duration
	SweepEvery time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 0)
	if err != nil {
		return SessionConfig{}, err
	}

	sweep, err := parseDurationEnv("SESSION_SWEEP_EVERY", time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}
	if sweep <= 0 {
		return SessionConfig{}, fmt.Errorf("SESSION_SWEEP_EVERY must be positive, got %s", sweep)
	}

	return SessionConfig{TTL: ttl, SweepEvery: sweep}, nil
}

// AccountConfig describes the optional account store.
type AccountConfig struct {
	DBPath string
}

// Enabled reports whether the account surface should be served.
func (c AccountConfig) Enabled() bool {
	return c.DBPath != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
