// Package config loads application configuration from environment variables
// and an optional YAML file, resolves artifact paths, and validates the
// result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for configuration environment variables.
const EnvPrefix = "CHAINSIGHT"

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Artifacts ArtifactsConfig `yaml:"artifacts" envconfig:"ARTIFACTS"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains CORS and rate limiting configuration.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100" validate:"min=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50" validate:"min=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// ArtifactsConfig names the optional tabular artifacts the insights core
// consumes. Every artifact may be absent at runtime; only the directories
// are required to resolve.
type ArtifactsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data" validate:"required"`
	OutputsDir string `yaml:"outputs_dir" envconfig:"OUTPUTS_DIR" default:"outputs" validate:"required"`

	Segments          string `yaml:"segments" envconfig:"SEGMENTS" default:"customer_segments.csv"`
	Profiles          string `yaml:"profiles" envconfig:"PROFILES" default:"segment_profile.csv"`
	Orders            string `yaml:"orders" envconfig:"ORDERS" default:"train.csv"`
	CategoryAggregate string `yaml:"category_aggregate" envconfig:"CATEGORY_AGGREGATE" default:"sales_by_category.csv"`
	RegionAggregate   string `yaml:"region_aggregate" envconfig:"REGION_AGGREGATE" default:"sales_by_region.csv"`
	MonthlyAggregate  string `yaml:"monthly_aggregate" envconfig:"MONTHLY_AGGREGATE" default:"sales_by_month.csv"`
	Forecast          string `yaml:"forecast" envconfig:"FORECAST" default:"forecast_prophet.csv"`
}

// Artifact names used across the service, CLI and API.
const (
	ArtifactSegments          = "segments"
	ArtifactProfiles          = "profiles"
	ArtifactOrders            = "orders"
	ArtifactCategoryAggregate = "category_aggregate"
	ArtifactRegionAggregate   = "region_aggregate"
	ArtifactMonthlyAggregate  = "monthly_aggregate"
	ArtifactForecast          = "forecast"
)

// SegmentsPath returns the resolved path of the customer segments artifact.
func (a ArtifactsConfig) SegmentsPath() string { return filepath.Join(a.OutputsDir, a.Segments) }

// ProfilesPath returns the resolved path of the segment profile artifact.
func (a ArtifactsConfig) ProfilesPath() string { return filepath.Join(a.OutputsDir, a.Profiles) }

// OrdersPath returns the resolved path of the raw orders artifact.
func (a ArtifactsConfig) OrdersPath() string { return filepath.Join(a.DataDir, a.Orders) }

// CategoryAggregatePath returns the resolved path of the category rollup.
func (a ArtifactsConfig) CategoryAggregatePath() string {
	return filepath.Join(a.OutputsDir, a.CategoryAggregate)
}

// RegionAggregatePath returns the resolved path of the region rollup.
func (a ArtifactsConfig) RegionAggregatePath() string {
	return filepath.Join(a.OutputsDir, a.RegionAggregate)
}

// MonthlyAggregatePath returns the resolved path of the monthly rollup.
func (a ArtifactsConfig) MonthlyAggregatePath() string {
	return filepath.Join(a.OutputsDir, a.MonthlyAggregate)
}

// ForecastPath returns the resolved path of the external forecast artifact.
func (a ArtifactsConfig) ForecastPath() string { return filepath.Join(a.OutputsDir, a.Forecast) }

// Path resolves an artifact name to its configured path.
func (a ArtifactsConfig) Path(name string) (string, bool) {
	switch name {
	case ArtifactSegments:
		return a.SegmentsPath(), true
	case ArtifactProfiles:
		return a.ProfilesPath(), true
	case ArtifactOrders:
		return a.OrdersPath(), true
	case ArtifactCategoryAggregate:
		return a.CategoryAggregatePath(), true
	case ArtifactRegionAggregate:
		return a.RegionAggregatePath(), true
	case ArtifactMonthlyAggregate:
		return a.MonthlyAggregatePath(), true
	case ArtifactForecast:
		return a.ForecastPath(), true
	}
	return "", false
}

// Names lists all artifact names in a stable display order.
func (a ArtifactsConfig) Names() []string {
	return []string{
		ArtifactSegments,
		ArtifactProfiles,
		ArtifactOrders,
		ArtifactCategoryAggregate,
		ArtifactRegionAggregate,
		ArtifactMonthlyAggregate,
		ArtifactForecast,
	}
}

// Load builds the configuration with precedence env > file > default: an
// explicitly set environment variable always wins, the optional YAML file
// overrides tag defaults, and tag defaults fill the rest. The result is
// then validated.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom is Load with an explicit config file path; an empty or missing
// path skips the file step.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			merge(&cfg, fileCfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func configFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge applies file values over the tag defaults envconfig already filled
// in, without disturbing anything the environment set explicitly. envconfig
// cannot distinguish "defaulted" from "set", so each field checks the actual
// environment variable. Security stays environment-only.
func merge(env *Config, file *Config) {
	if file.Server.Port != 0 && !envSet("SERVER_PORT") {
		env.Server.Port = file.Server.Port
	}
	takeDuration(&env.Server.ReadTimeout, "SERVER_READ_TIMEOUT", file.Server.ReadTimeout)
	takeDuration(&env.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT", file.Server.WriteTimeout)
	takeDuration(&env.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT", file.Server.IdleTimeout)
	takeDuration(&env.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT", file.Server.ShutdownTimeout)

	takeString(&env.Logging.Level, "LOGGING_LEVEL", file.Logging.Level)
	takeString(&env.Logging.Output, "LOGGING_OUTPUT", file.Logging.Output)
	takeString(&env.Logging.FilePath, "LOGGING_FILE_PATH", file.Logging.FilePath)

	takeString(&env.Artifacts.DataDir, "ARTIFACTS_DATA_DIR", file.Artifacts.DataDir)
	takeString(&env.Artifacts.OutputsDir, "ARTIFACTS_OUTPUTS_DIR", file.Artifacts.OutputsDir)
	takeString(&env.Artifacts.Segments, "ARTIFACTS_SEGMENTS", file.Artifacts.Segments)
	takeString(&env.Artifacts.Profiles, "ARTIFACTS_PROFILES", file.Artifacts.Profiles)
	takeString(&env.Artifacts.Orders, "ARTIFACTS_ORDERS", file.Artifacts.Orders)
	takeString(&env.Artifacts.CategoryAggregate, "ARTIFACTS_CATEGORY_AGGREGATE", file.Artifacts.CategoryAggregate)
	takeString(&env.Artifacts.RegionAggregate, "ARTIFACTS_REGION_AGGREGATE", file.Artifacts.RegionAggregate)
	takeString(&env.Artifacts.MonthlyAggregate, "ARTIFACTS_MONTHLY_AGGREGATE", file.Artifacts.MonthlyAggregate)
	takeString(&env.Artifacts.Forecast, "ARTIFACTS_FORECAST", file.Artifacts.Forecast)
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

func takeString(dst *string, envKey, fileVal string) {
	if fileVal != "" && !envSet(envKey) {
		*dst = fileVal
	}
}

func takeDuration(dst *time.Duration, envKey string, fileVal time.Duration) {
	if fileVal != 0 && !envSet(envKey) {
		*dst = fileVal
	}
}
