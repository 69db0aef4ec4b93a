package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	switch d.Driver {
	case DriverPostgres:
		if d.DSN == "" && (d.Host == "" || d.Name == "") {
			return fmt.Errorf("dsn or host and name are required")
		}
		if d.DSN == "" && (d.Port <= 0 || d.Port > 65535) {
			return fmt.Errorf("port must be in 1..65535 (got %d)", d.Port)
		}
		if d.MaxConns < 1 {
			return fmt.Errorf("max_conns must be >= 1 (got %d)", d.MaxConns)
		}
		if d.MinConns < 0 || d.MinConns > d.MaxConns {
			return fmt.Errorf("min_conns must be in 0..max_conns (got %d)", d.MinConns)
		}
	case DriverSQLite:
		if strings.TrimSpace(d.SQLitePath) == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("driver must be %s or %s (got %q)", DriverPostgres, DriverSQLite, d.Driver)
	}
	return nil
}

func (l *LogConfig) validate() error {
	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("format must be json or text (got %q)", l.Format)
	}
	return nil
}
