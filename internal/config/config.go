package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds store connection settings. For postgres, DSN wins over
// the individual parts when set.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"             env:"DATABASE_DRIVER"             env-default:"postgres"`
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	Host            string        `yaml:"host"               env:"DATABASE_HOST"               env-default:"localhost"`
	Port            int           `yaml:"port"               env:"DATABASE_PORT"               env-default:"5432"`
	User            string        `yaml:"user"               env:"DATABASE_USER"               env-default:"postgres"`
	Password        string        `yaml:"password"           env:"DATABASE_PASSWORD"`
	Name            string        `yaml:"name"               env:"DATABASE_NAME"               env-default:"poetry"`
	SSLMode         string        `yaml:"sslmode"            env:"DATABASE_SSLMODE"            env-default:"disable"`
	ApplicationName string        `yaml:"application_name"   env:"DATABASE_APPLICATION_NAME"   env-default:"poetry-loader"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"8"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	SQLitePath      string        `yaml:"sqlite_path"        env:"DATABASE_SQLITE_PATH"        env-default:"./poetry.db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ConnString returns the postgres connection string: DSN if set, otherwise a
// URL built from the individual parts.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// Redacted returns a log-safe description of the store target.
func (d DatabaseConfig) Redacted() string {
	if d.Driver == DriverSQLite {
		return d.SQLitePath
	}
	u, err := url.Parse(d.ConnString())
	if err != nil {
		return fmt.Sprintf("<unparseable %s dsn>", d.Driver)
	}
	return u.Redacted()
}
