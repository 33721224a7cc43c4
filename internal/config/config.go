package config

import (
	"fmt"
	"os"
	"time"

	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "CONSOLIDADOR"

// DefaultConfigFile is read when CONSOLIDADOR_CONFIG is not set and the file exists.
const DefaultConfigFile = "consolidador.yaml"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string `yaml:"port" envconfig:"PORT" default:"8083"`
	GinMode        string `yaml:"gin_mode" envconfig:"GIN_MODE" default:"release"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// ProcessingConfig controls how spreadsheets are consolidated
type ProcessingConfig struct {
	HierarchyPolicy   string        `yaml:"hierarchy_policy" envconfig:"HIERARCHY_POLICY" default:"persistente"`
	MaxConcurrentRuns int64         `yaml:"max_concurrent_runs" envconfig:"MAX_CONCURRENT_RUNS" default:"1"`
	OutputDir         string        `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"."`
	WorkDir           string        `yaml:"work_dir" envconfig:"WORK_DIR"`
	RunRetention      time.Duration `yaml:"run_retention" envconfig:"RUN_RETENTION" default:"1h"`
}

// Politica returns the configured hierarchy reset policy.
func (p ProcessingConfig) Politica() domain.PoliticaHierarquia {
	return domain.PoliticaHierarquia(p.HierarchyPolicy)
}

// Load reads .env (if present), the environment and an optional YAML file.
// Values from the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := os.Getenv(EnvPrefix + "_CONFIG")
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs keeps file values only where the variable was not set in the environment.
func mergeConfigs(file, env Config) Config {
	merged := env
	pick := func(dst *string, fileVal, key string) {
		if _, set := os.LookupEnv(EnvPrefix + "_" + key); !set && fileVal != "" {
			*dst = fileVal
		}
	}
	pick(&merged.Server.Port, file.Server.Port, "SERVER_PORT")
	pick(&merged.Server.GinMode, file.Server.GinMode, "SERVER_GIN_MODE")
	pick(&merged.Logging.Level, file.Logging.Level, "LOGGING_LEVEL")
	pick(&merged.Processing.HierarchyPolicy, file.Processing.HierarchyPolicy, "PROCESSING_HIERARCHY_POLICY")
	pick(&merged.Processing.OutputDir, file.Processing.OutputDir, "PROCESSING_OUTPUT_DIR")
	pick(&merged.Processing.WorkDir, file.Processing.WorkDir, "PROCESSING_WORK_DIR")

	if _, set := os.LookupEnv(EnvPrefix + "_SERVER_MAX_UPLOAD_BYTES"); !set && file.Server.MaxUploadBytes > 0 {
		merged.Server.MaxUploadBytes = file.Server.MaxUploadBytes
	}
	if _, set := os.LookupEnv(EnvPrefix + "_PROCESSING_MAX_CONCURRENT_RUNS"); !set && file.Processing.MaxConcurrentRuns > 0 {
		merged.Processing.MaxConcurrentRuns = file.Processing.MaxConcurrentRuns
	}
	if _, set := os.LookupEnv(EnvPrefix + "_PROCESSING_RUN_RETENTION"); !set && file.Processing.RunRetention > 0 {
		merged.Processing.RunRetention = file.Processing.RunRetention
	}
	if _, set := os.LookupEnv(EnvPrefix + "_LOGGING_DEVELOPMENT"); !set && file.Logging.Development {
		merged.Logging.Development = true
	}
	return merged
}

func (c *Config) validate() error {
	switch c.Processing.Politica() {
	case domain.PoliticaPersistente, domain.PoliticaPorPrefixo:
	default:
		return fmt.Errorf("invalid hierarchy policy %q (use %q or %q)",
			c.Processing.HierarchyPolicy, domain.PoliticaPersistente, domain.PoliticaPorPrefixo)
	}
	if c.Processing.MaxConcurrentRuns < 1 {
		return fmt.Errorf("max concurrent runs must be at least 1")
	}
	if c.Processing.RunRetention <= 0 {
		return fmt.Errorf("run retention must be positive")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	return nil
}
