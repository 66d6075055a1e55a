package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"git.solver4all.com/azaryc2s/flp/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "gurobi", cfg.Backend)
	assert.Equal(t, 300.0, cfg.TimeLimitSeconds)
	assert.Equal(t, 0, cfg.MaxFacilities)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flp.yaml")
	data := []byte("addr: \":9090\"\nbackend: highs\nworkers: 4\ninstance: testdata/us_network.json\ncors_origins:\n  - http://localhost:3000\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "highs", cfg.Backend)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "testdata/us_network.json", cfg.Instance)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	// untouched fields keep their defaults
	assert.Equal(t, 300.0, cfg.TimeLimitSeconds)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	os.Setenv("FLP_BACKEND", "highs")
	os.Setenv("FLP_WORKERS", "8")
	os.Setenv("FLP_TIME_LIMIT", "12.5")
	os.Setenv("FLP_CORS_ORIGINS", "http://a.example, http://b.example")
	defer func() {
		os.Unsetenv("FLP_BACKEND")
		os.Unsetenv("FLP_WORKERS")
		os.Unsetenv("FLP_TIME_LIMIT")
		os.Unsetenv("FLP_CORS_ORIGINS")
	}()

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "highs", cfg.Backend)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 12.5, cfg.TimeLimitSeconds)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
}

func TestLoadEnvBadValueIgnored(t *testing.T) {
	os.Setenv("FLP_WORKERS", "many")
	defer os.Unsetenv("FLP_WORKERS")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown backend", "backend: cplex\n", "backend must be one of"},
		{"zero workers", "workers: 0\n", "workers must be >= 1"},
		{"negative time limit", "time_limit_seconds: -5\n", "timelimitseconds must be >= 0"},
		{"zero rate", "rate_rps: 0\n", "raterps must be > 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "flp.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := config.Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
