package postgres

import (
	"fmt"
	"net/url"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "require", "verify-ca", "verify-full"
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:    DefaultPort(),
		SSLMode: "require",
	}

	host, ok := config["host"].(string)
	if !ok || host == "" {
		return nil, fmt.Errorf("host is required")
	}
	cfg.Host = host

	switch port := config["port"].(type) {
	case int:
		cfg.Port = port
	case float64: // JSON numbers are float64
		cfg.Port = int(port)
	}

	user, ok := config["user"].(string)
	if !ok || user == "" {
		return nil, fmt.Errorf("user is required")
	}
	cfg.User = user

	if password, ok := config["password"].(string); ok {
		cfg.Password = password
	}

	database, ok := config["database"].(string)
	if !ok || database == "" {
		return nil, fmt.Errorf("database is required")
	}
	cfg.Database = database

	if sslMode, ok := config["ssl_mode"].(string); ok && sslMode != "" {
		cfg.SSLMode = sslMode
	}

	return cfg, nil
}

// ConnectionString builds the pgx connection URL.
func (c *Config) ConnectionString() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
		c.SSLMode,
	)
}
