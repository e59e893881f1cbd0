// Package config loads and validates the service configuration. A YAML
// file supplies the base configuration and well-known environment
// variables override individual values, so the service can run from env
// alone in containerized deployments.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	Oracle        OracleConfig        `yaml:"oracle"`
	Audio         AudioConfig         `yaml:"audio"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Events        EventsConfig        `yaml:"events"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// WebhookConfig contains result callback configuration. URL may be empty;
// the webhook-contract endpoint rejects requests at request time when no
// callback URL is configured.
type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// OracleConfig contains judgment oracle configuration.
type OracleConfig struct {
	Provider    string        `yaml:"provider"` // "openai" or "gemini"
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Project     string        `yaml:"project"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AudioConfig contains audio retrieval and transcoding configuration.
type AudioConfig struct {
	TempDir         string        `yaml:"temp_dir"`
	FFmpegPath      string        `yaml:"ffmpeg_path"`
	FFprobePath     string        `yaml:"ffprobe_path"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	AWSRegion       string        `yaml:"aws_region"`
	AWSAccessKey    string        `yaml:"aws_access_key"`
	AWSSecretKey    string        `yaml:"aws_secret_key"`
}

// TranscriptionConfig contains transcription engine configuration.
type TranscriptionConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

// EventsConfig contains the optional Kafka audit-event publisher
// configuration. Disabled publishers fall back to log-only mode.
type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

// Default returns the baseline configuration before file and env overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			Address: "0.0.0.0",
		},
		Webhook: WebhookConfig{
			Timeout: 10 * time.Second,
		},
		Oracle: OracleConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.1,
			MaxTokens:   1000,
			Timeout:     60 * time.Second,
		},
		Audio: AudioConfig{
			TempDir:         os.TempDir(),
			FFmpegPath:      "ffmpeg",
			FFprobePath:     "ffprobe",
			DownloadTimeout: 60 * time.Second,
		},
		Transcription: TranscriptionConfig{
			Language: "en",
			Timeout:  120 * time.Second,
		},
		Events: EventsConfig{
			Topic: "callaudit.completed",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides individual values from well-known environment
// variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("ORACLE_PROVIDER"); v != "" {
		c.Oracle.Provider = v
	}
	if v := os.Getenv("ORACLE_MODEL"); v != "" {
		c.Oracle.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.Oracle.Provider == "openai" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv("OPENAI_PROJECT_ID"); v != "" {
		c.Oracle.Project = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.Oracle.Provider == "gemini" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv("WHISPER_ENDPOINT"); v != "" {
		c.Transcription.Endpoint = v
	}
	if v := os.Getenv("WHISPER_API_KEY"); v != "" {
		c.Transcription.APIKey = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Audio.AWSRegion = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
		c.Events.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Events.Topic = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate performs validation of the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Oracle.Validate(); err != nil {
		return fmt.Errorf("oracle config: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration.
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	return nil
}

// Validate validates oracle configuration.
func (o *OracleConfig) Validate() error {
	switch o.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("provider must be openai or gemini, got %q", o.Provider)
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", o.Temperature)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", o.Timeout)
	}
	return nil
}

// Validate validates events configuration.
func (e *EventsConfig) Validate() error {
	if e.Enabled && len(e.Brokers) == 0 {
		return fmt.Errorf("brokers cannot be empty when events are enabled")
	}
	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of debug, info, warn, error, got %q", l.Level)
	}
	switch l.Format {
	case "json", "console":
	default:
		return fmt.Errorf("format must be json or console, got %q", l.Format)
	}
	return nil
}
