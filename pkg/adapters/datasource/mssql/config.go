package mssql

import (
	"fmt"
	"net/url"
	"strconv"
)

// Config contains SQL Server connection options (SQL authentication).
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int // seconds
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:              DefaultPort(),
		Encrypt:           true,
		ConnectionTimeout: 30,
	}

	host, ok := config["host"].(string)
	if !ok || host == "" {
		return nil, fmt.Errorf("host is required")
	}
	cfg.Host = host

	switch port := config["port"].(type) {
	case int:
		cfg.Port = port
	case float64:
		cfg.Port = int(port)
	}

	database, ok := config["database"].(string)
	if !ok || database == "" {
		return nil, fmt.Errorf("database is required")
	}
	cfg.Database = database

	// "user" is shared with the postgres adapter config shape
	if user, ok := config["username"].(string); ok {
		cfg.Username = user
	} else if user, ok := config["user"].(string); ok {
		cfg.Username = user
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("username is required")
	}

	if password, ok := config["password"].(string); ok {
		cfg.Password = password
	}

	switch config["ssl_mode"] {
	case "disable":
		cfg.Encrypt = false
	case "trust":
		cfg.TrustServerCertificate = true
	}

	return cfg, nil
}

// ConnectionString builds the go-mssqldb connection URL.
func (c *Config) ConnectionString() string {
	query := url.Values{}
	query.Add("database", c.Database)
	query.Add("encrypt", strconv.FormatBool(c.Encrypt))
	if c.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if c.ConnectionTimeout > 0 {
		query.Add("connection timeout", strconv.Itoa(c.ConnectionTimeout))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		query.Encode(),
	)
}
