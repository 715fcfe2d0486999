package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // zone database for minimal images

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for the report renderer.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// QueriesFile is the YAML catalog of saved queries.
	QueriesFile string `yaml:"queries_file" env:"QUERIES_FILE" env-default:"queries.yaml"`

	// Parameter behavior
	Parameters ParametersConfig `yaml:"parameters"`

	// Datasource the saved queries run against
	Datasource DatasourceConfig `yaml:"datasource"`
}

// ParametersConfig controls how parameter values are parsed and resolved.
type ParametersConfig struct {
	// Timezone is the IANA zone used to parse dates and resolve dynamic dates.
	Timezone string `yaml:"timezone" env:"PARAMETERS_TIMEZONE" env-default:"UTC"`

	// WeekStart is the first day of the week for week-based date ranges.
	WeekStart string `yaml:"week_start" env:"PARAMETERS_WEEK_START" env-default:"sunday"`

	// EnumFirstOptionFallback makes invalid single-select enum values fall
	// back to the first option instead of becoming empty.
	EnumFirstOptionFallback bool `yaml:"enum_first_option_fallback" env:"PARAMETERS_ENUM_FIRST_OPTION_FALLBACK" env-default:"false"`

	// ScanValues rejects executions whose string values look like SQL injection.
	ScanValues bool `yaml:"scan_values" env:"PARAMETERS_SCAN_VALUES" env-default:"true"`
}

// DatasourceConfig holds connection settings for query execution.
type DatasourceConfig struct {
	Type     string `yaml:"type" env:"DATASOURCE_TYPE" env-default:"postgres"`
	Host     string `yaml:"host" env:"DATASOURCE_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DATASOURCE_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DATASOURCE_USER" env-default:"redash"`
	Password string `yaml:"-" env:"DATASOURCE_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"DATASOURCE_DATABASE" env-default:"redash"`
	SSLMode  string `yaml:"ssl_mode" env:"DATASOURCE_SSL_MODE" env-default:"disable"`
	// MaxRows bounds every execution (0 = adapter maximum).
	MaxRows int `yaml:"max_rows" env:"DATASOURCE_MAX_ROWS" env-default:"1000"`
	// ConnectRetries is how often a failed connection attempt is retried.
	ConnectRetries int `yaml:"connect_retries" env:"DATASOURCE_CONNECT_RETRIES" env-default:"3"`
}

// Load reads configuration from the YAML file at path with environment
// variable overrides. A missing file is not an error: configuration then comes
// from the environment and defaults alone.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if _, err := cfg.Parameters.Location(); err != nil {
		return nil, fmt.Errorf("invalid parameters configuration: %w", err)
	}
	if _, err := cfg.Parameters.FirstWeekday(); err != nil {
		return nil, fmt.Errorf("invalid parameters configuration: %w", err)
	}

	return cfg, nil
}

// Location resolves the configured timezone.
func (c *ParametersConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FirstWeekday resolves the configured week start.
func (c *ParametersConfig) FirstWeekday() (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "", "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	default:
		return time.Sunday, fmt.Errorf("week_start must be sunday or monday, got %q", c.WeekStart)
	}
}

// AdapterConfig returns the generic map handed to datasource adapter factories.
func (c *DatasourceConfig) AdapterConfig() map[string]any {
	return map[string]any{
		"host":     c.resolvedHost(),
		"port":     c.Port,
		"user":     c.User,
		"password": c.Password,
		"database": c.Database,
		"ssl_mode": c.SSLMode,
	}
}

var (
	inContainerOnce sync.Once
	inContainer     bool
)

// resolvedHost maps loopback hosts to the container host gateway when running
// inside Docker, so a datasource on the host machine stays reachable.
func (c *DatasourceConfig) resolvedHost() string {
	inContainerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		inContainer = err == nil
	})
	if inContainer && (c.Host == "localhost" || c.Host == "127.0.0.1") {
		return "host.docker.internal"
	}
	return c.Host
}
