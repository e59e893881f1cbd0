package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Oracle.Provider != "openai" {
		t.Errorf("expected default provider openai, got %q", cfg.Oracle.Provider)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
webhook:
  url: https://hooks.example.com/audits
  timeout: 5s
oracle:
  provider: gemini
  model: gemini-1.5-flash
  temperature: 0.3
transcription:
  endpoint: http://whisper:9000
  language: de
events:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Webhook.URL != "https://hooks.example.com/audits" {
		t.Errorf("unexpected webhook URL: %q", cfg.Webhook.URL)
	}
	if cfg.Webhook.Timeout != 5*time.Second {
		t.Errorf("expected 5s webhook timeout, got %v", cfg.Webhook.Timeout)
	}
	if cfg.Oracle.Provider != "gemini" || cfg.Oracle.Model != "gemini-1.5-flash" {
		t.Errorf("oracle overrides not applied: %+v", cfg.Oracle)
	}
	// Unset fields keep their defaults.
	if cfg.Oracle.Timeout != 60*time.Second {
		t.Errorf("expected default oracle timeout, got %v", cfg.Oracle.Timeout)
	}
	if cfg.Transcription.Language != "de" {
		t.Errorf("expected language de, got %q", cfg.Transcription.Language)
	}
	if diff := cmp.Diff([]string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.Brokers); diff != "" {
		t.Errorf("brokers mismatch (-want +got):\n%s", diff)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging overrides not applied: %+v", cfg.Logging)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("WEBHOOK_URL", "https://env.example.com/cb")
	t.Setenv("ORACLE_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("PORT not applied, got %d", cfg.Server.Port)
	}
	if cfg.Webhook.URL != "https://env.example.com/cb" {
		t.Errorf("WEBHOOK_URL not applied, got %q", cfg.Webhook.URL)
	}
	if cfg.Oracle.APIKey != "sk-env" {
		t.Errorf("OPENAI_API_KEY not applied")
	}
	if !cfg.Events.Enabled {
		t.Error("KAFKA_BROKERS must enable the event publisher")
	}
	if diff := cmp.Diff([]string{"a:9092", "b:9092"}, cfg.Events.Brokers); diff != "" {
		t.Errorf("brokers mismatch (-want +got):\n%s", diff)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("LOG_LEVEL not applied, got %q", cfg.Logging.Level)
	}
}

func TestGeminiKeyIgnoredForOpenAIProvider(t *testing.T) {
	t.Setenv("ORACLE_PROVIDER", "openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Oracle.APIKey == "gm-key" {
		t.Error("gemini key must not apply to the openai provider")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"empty address", func(c *Config) { c.Server.Address = "" }, "address"},
		{"bad provider", func(c *Config) { c.Oracle.Provider = "claude" }, "provider"},
		{"temperature out of range", func(c *Config) { c.Oracle.Temperature = 2.5 }, "temperature"},
		{"zero oracle timeout", func(c *Config) { c.Oracle.Timeout = 0 }, "timeout"},
		{"events enabled without brokers", func(c *Config) { c.Events.Enabled = true }, "brokers"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
