package ingest

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/heartmarshall/poetry-loader/internal/normalize"
)

// Config holds ingestion pipeline settings.
type Config struct {
	Dir              string        `yaml:"dir"               env:"INGEST_DIR"`
	Exclude          []string      `yaml:"exclude"           env:"INGEST_EXCLUDE"           env-separator:"," env-default:"authors.song.json,authors.tang.json,README.md,表面结构字.json"`
	Normalizer       string        `yaml:"normalizer"        env:"INGEST_NORMALIZER"        env-default:"t2s"`
	OpenCCConversion string        `yaml:"opencc_conversion" env:"INGEST_OPENCC_CONVERSION" env-default:"t2s"`
	UnicodeForm      string        `yaml:"unicode_form"      env:"INGEST_UNICODE_FORM"`
	Workers          int           `yaml:"workers"           env:"INGEST_WORKERS"           env-default:"1"`
	TxRetries        int           `yaml:"tx_retries"        env:"INGEST_TX_RETRIES"        env-default:"5"`
	TxRetryWait      time.Duration `yaml:"tx_retry_wait"     env:"INGEST_TX_RETRY_WAIT"     env-default:"50ms"`
	DryRun           bool          `yaml:"dry_run"           env:"INGEST_DRY_RUN"`
	Timeout          time.Duration `yaml:"timeout"           env:"INGEST_TIMEOUT"           env-default:"2h"`
}

// LoadConfig reads ingest configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("ingest config: file %s not found", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("ingest config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("ingest config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ingest config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings that cannot be expressed with struct tags.
// Dir is checked by the caller because it may come from a CLI flag.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", c.Workers)
	}
	if c.TxRetries < 0 {
		return fmt.Errorf("tx_retries must be >= 0 (got %d)", c.TxRetries)
	}
	if c.TxRetryWait < 0 {
		return fmt.Errorf("tx_retry_wait must be >= 0 (got %s)", c.TxRetryWait)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", c.Timeout)
	}
	switch c.Normalizer {
	case "t2s", "none":
	default:
		return fmt.Errorf("normalizer must be t2s or none (got %q)", c.Normalizer)
	}
	return nil
}

// NormalizeOptions maps the config onto normalizer options.
func (c *Config) NormalizeOptions() normalize.Options {
	return normalize.Options{
		Mode:        c.Normalizer,
		Conversion:  c.OpenCCConversion,
		UnicodeForm: c.UnicodeForm,
	}
}
