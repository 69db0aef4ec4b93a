package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Normalizer != "t2s" {
		t.Errorf("normalizer = %q, want t2s", cfg.Normalizer)
	}
	if cfg.Workers != 1 {
		t.Errorf("workers = %d, want 1", cfg.Workers)
	}
	if cfg.TxRetries != 5 || cfg.TxRetryWait != 50*time.Millisecond {
		t.Errorf("tx retries = %d/%v, want 5/50ms", cfg.TxRetries, cfg.TxRetryWait)
	}
	if cfg.Timeout != 2*time.Hour {
		t.Errorf("timeout = %v, want 2h", cfg.Timeout)
	}
	want := []string{"authors.song.json", "authors.tang.json", "README.md", "表面结构字.json"}
	if strings.Join(cfg.Exclude, "|") != strings.Join(want, "|") {
		t.Errorf("exclude = %v, want %v", cfg.Exclude, want)
	}
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.yaml")
	content := `
dir: "/data/全唐诗"
exclude: ["README.md", "*.bak"]
normalizer: "none"
unicode_form: "nfc"
workers: 2
dry_run: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("INGEST_WORKERS", "6")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Dir != "/data/全唐诗" {
		t.Errorf("dir = %q", cfg.Dir)
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[1] != "*.bak" {
		t.Errorf("exclude = %v", cfg.Exclude)
	}
	if cfg.Workers != 6 {
		t.Errorf("workers = %d, want 6 (ENV override)", cfg.Workers)
	}
	if !cfg.DryRun {
		t.Error("dry_run should be true")
	}

	opts := cfg.NormalizeOptions()
	if opts.Mode != "none" || opts.UnicodeForm != "nfc" {
		t.Errorf("NormalizeOptions() = %+v", opts)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/ingest.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Normalizer: "t2s", Workers: 1, Timeout: time.Minute}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"unknown normalizer", func(c *Config) { c.Normalizer = "s2t" }, "normalizer"},
		{"negative tx retries", func(c *Config) { c.TxRetries = -1 }, "tx_retries"},
		{"negative tx retry wait", func(c *Config) { c.TxRetryWait = -time.Second }, "tx_retry_wait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
