// Package config loads farsdash settings from defaults, an optional YAML or
// TOML file, and FARSDASH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FARSDASH_"

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Config holds every setting of the service and CLI.
type Config struct {
	ListenAddr       string        `yaml:"listen_addr" toml:"listen_addr"`
	BackendURL       string        `yaml:"backend_url" toml:"backend_url"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout" toml:"fetch_timeout"`
	BreakerThreshold int           `yaml:"breaker_threshold" toml:"breaker_threshold"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout" toml:"breaker_timeout"`
	GeoJSONPath      string        `yaml:"geojson_path" toml:"geojson_path"`
	FirstYear        int           `yaml:"first_year" toml:"first_year"`
	LastYear         int           `yaml:"last_year" toml:"last_year"`
	DefaultYear      int           `yaml:"default_year" toml:"default_year"`
	SessionIdle      time.Duration `yaml:"session_idle" toml:"session_idle"`
	PointerRate      float64       `yaml:"pointer_rate" toml:"pointer_rate"`
	PointerBurst     int           `yaml:"pointer_burst" toml:"pointer_burst"`
	CORSOrigin       string        `yaml:"cors_origin" toml:"cors_origin"`
	GRPCHealthAddr   string        `yaml:"grpc_health_addr" toml:"grpc_health_addr"`
	NATSURL          string        `yaml:"nats_url" toml:"nats_url"`
	NATSSubject      string        `yaml:"nats_subject" toml:"nats_subject"`
	Log              Log           `yaml:"log" toml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:       ":8080",
		BackendURL:       "http://127.0.0.1:8000",
		FetchTimeout:     30 * time.Second,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
		FirstYear:        2010,
		LastYear:         2023,
		DefaultYear:      2023,
		SessionIdle:      30 * time.Minute,
		PointerRate:      30,
		PointerBurst:     60,
		CORSOrigin:       "*",
		NATSSubject:      "farsdash.interactions",
		Log:              Log{Level: "info", Format: "json"},
	}
}

// Load builds the configuration: defaults, then the file at path (if not
// empty), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes the file over cfg; keys absent from the file keep their
// current values.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension (want .yaml, .yml or .toml)", path)
	}
	return nil
}

// ApplyEnv overlays FARSDASH_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("LISTEN_ADDR", &cfg.ListenAddr)
	str("BACKEND_URL", &cfg.BackendURL)
	dur("FETCH_TIMEOUT", &cfg.FetchTimeout)
	num("BREAKER_THRESHOLD", &cfg.BreakerThreshold)
	dur("BREAKER_TIMEOUT", &cfg.BreakerTimeout)
	str("GEOJSON_PATH", &cfg.GeoJSONPath)
	num("FIRST_YEAR", &cfg.FirstYear)
	num("LAST_YEAR", &cfg.LastYear)
	num("DEFAULT_YEAR", &cfg.DefaultYear)
	dur("SESSION_IDLE", &cfg.SessionIdle)
	float("POINTER_RATE", &cfg.PointerRate)
	num("POINTER_BURST", &cfg.PointerBurst)
	str("CORS_ORIGIN", &cfg.CORSOrigin)
	str("GRPC_HEALTH_ADDR", &cfg.GRPCHealthAddr)
	str("NATS_URL", &cfg.NATSURL)
	str("NATS_SUBJECT", &cfg.NATSSubject)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(errs...)
}

// Validate checks all fields and returns every problem at once.
func (c Config) Validate() error {
	var errs []string

	if c.ListenAddr == "" {
		errs = append(errs, "listen_addr: must not be empty")
	}
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		errs = append(errs, fmt.Sprintf("backend_url: must be an http(s) URL, got %q", c.BackendURL))
	}
	if c.FetchTimeout < 0 {
		errs = append(errs, fmt.Sprintf("fetch_timeout: must be non-negative, got %s", c.FetchTimeout))
	}
	if c.BreakerThreshold < 0 {
		errs = append(errs, fmt.Sprintf("breaker_threshold: must be non-negative, got %d", c.BreakerThreshold))
	}
	if c.FirstYear > c.LastYear {
		errs = append(errs, fmt.Sprintf("first_year: %d is after last_year %d", c.FirstYear, c.LastYear))
	}
	if c.DefaultYear < c.FirstYear || c.DefaultYear > c.LastYear {
		errs = append(errs, fmt.Sprintf("default_year: %d outside [%d, %d]", c.DefaultYear, c.FirstYear, c.LastYear))
	}
	if c.SessionIdle <= 0 {
		errs = append(errs, fmt.Sprintf("session_idle: must be positive, got %s", c.SessionIdle))
	}
	if c.PointerRate < 0 {
		errs = append(errs, fmt.Sprintf("pointer_rate: must be non-negative, got %g", c.PointerRate))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level: invalid value %q (must be debug, info, warn, or error)", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format: invalid value %q (must be json or text)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Years lists every selectable year, latest first.
func (c Config) Years() []int {
	if c.FirstYear > c.LastYear {
		return nil
	}
	out := make([]int, 0, c.LastYear-c.FirstYear+1)
	for y := c.LastYear; y >= c.FirstYear; y-- {
		out = append(out, y)
	}
	return out
}
