package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server:     ServerConfig{Port: "8083", GinMode: "release", MaxUploadBytes: 1024},
		Logging:    LoggingConfig{Level: "info"},
		Processing: ProcessingConfig{HierarchyPolicy: "persistente", MaxConcurrentRuns: 1, OutputDir: ".", RunRetention: time.Hour},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "prefix policy", mutate: func(c *Config) { c.Processing.HierarchyPolicy = "prefixo" }},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.Processing.HierarchyPolicy = "reset" },
			wantErr: `invalid hierarchy policy "reset"`,
		},
		{
			name:    "zero concurrent runs",
			mutate:  func(c *Config) { c.Processing.MaxConcurrentRuns = 0 },
			wantErr: "max concurrent runs must be at least 1",
		},
		{
			name:    "zero run retention",
			mutate:  func(c *Config) { c.Processing.RunRetention = 0 },
			wantErr: "run retention must be positive",
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server port is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvPrefix+"_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Server.Port)
	assert.Equal(t, int64(1), cfg.Processing.MaxConcurrentRuns)
	assert.Equal(t, domain.PoliticaPersistente, cfg.Processing.Politica())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, time.Hour, cfg.Processing.RunRetention)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "consolidador.yaml")
	yml := []byte(`
server:
  port: "9090"
processing:
  hierarchy_policy: prefixo
  max_concurrent_runs: 3
  output_dir: /tmp/saida
  run_retention: 15m
`)
	require.NoError(t, os.WriteFile(file, yml, 0o644))

	t.Setenv(EnvPrefix+"_CONFIG", file)
	t.Setenv(EnvPrefix+"_SERVER_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port, "environment wins over file")
	assert.Equal(t, domain.PoliticaPorPrefixo, cfg.Processing.Politica())
	assert.Equal(t, int64(3), cfg.Processing.MaxConcurrentRuns)
	assert.Equal(t, "/tmp/saida", cfg.Processing.OutputDir)
	assert.Equal(t, 15*time.Minute, cfg.Processing.RunRetention)
}

func TestLoad_InvalidPolicy(t *testing.T) {
	t.Setenv(EnvPrefix+"_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(EnvPrefix+"_PROCESSING_HIERARCHY_POLICY", "sempre")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}
