// Package config loads the server configuration from an optional YAML
// file overlaid with FLP_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file Load falls back to when no explicit
// path is given. A missing default file is not an error.
const DefaultFile = "flp.yaml"

// Config holds all settings of the FLP API server.
type Config struct {
	Addr             string   `yaml:"addr" validate:"required"`
	Instance         string   `yaml:"instance"`
	Backend          string   `yaml:"backend" validate:"oneof=gurobi highs"`
	TimeLimitSeconds float64  `yaml:"time_limit_seconds" validate:"gte=0"`
	MaxFacilities    int      `yaml:"max_facilities" validate:"gte=0"`
	Capacity         float64  `yaml:"capacity" validate:"gte=0"`
	Workers          int      `yaml:"workers" validate:"gte=1"`
	RedisURL         string   `yaml:"redis_url"`
	SweepTTLSeconds  int      `yaml:"sweep_ttl_seconds" validate:"gte=0"`
	LogLevel         string   `yaml:"log_level" validate:"oneof=debug info warn error"`
	Development      bool     `yaml:"development"`
	RateRPS          float64  `yaml:"rate_rps" validate:"gt=0"`
	RateBurst        int      `yaml:"rate_burst" validate:"gte=1"`
	CORSOrigins      []string `yaml:"cors_origins"`
	GurobiLog        string   `yaml:"gurobi_log"`
}

var validate = validator.New()

// Default returns the configuration used when no file and no
// environment overrides are present.
func Default() *Config {
	return &Config{
		Addr:             ":8080",
		Backend:          "gurobi",
		TimeLimitSeconds: 300,
		MaxFacilities:    0,
		Workers:          2,
		SweepTTLSeconds:  0,
		LogLevel:         "info",
		RateRPS:          1,
		RateBurst:        2,
		CORSOrigins:      []string{"*"},
	}
}

// Load reads the configuration file at path (or DefaultFile when path
// is empty), overlays FLP_* environment variables and validates the
// result. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	name := path
	if name == "" {
		name = DefaultFile
	}
	data, err := os.ReadFile(name)
	if err != nil {
		if path != "" || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", name, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", name, err)
	}

	loadEnv(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationError(err)
	}
	return cfg, nil
}

// loadEnv overlays environment variables on the configuration. Unset
// or unparseable variables leave the current value in place.
func loadEnv(cfg *Config) {
	if v := os.Getenv("FLP_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("FLP_INSTANCE"); v != "" {
		cfg.Instance = v
	}
	if v := os.Getenv("FLP_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("FLP_TIME_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.TimeLimitSeconds = f
		}
	}
	if v := os.Getenv("FLP_MAX_FACILITIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFacilities = n
		}
	}
	if v := os.Getenv("FLP_CAPACITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Capacity = f
		}
	}
	if v := os.Getenv("FLP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("FLP_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("FLP_SWEEP_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SweepTTLSeconds = n
		}
	}
	if v := os.Getenv("FLP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLP_DEVELOPMENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Development = b
		}
	}
	if v := os.Getenv("FLP_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateRPS = f
		}
	}
	if v := os.Getenv("FLP_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateBurst = n
		}
	}
	if v := os.Getenv("FLP_CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}
	if v := os.Getenv("FLP_GUROBI_LOG"); v != "" {
		cfg.GurobiLog = v
	}
}

// formatValidationError turns validator errors into readable messages.
func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, e.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be > %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
