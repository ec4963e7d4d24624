// Package config loads controller and target settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration.
type Config struct {
	Client  ClientConfig
	Target  TargetConfig
	Logging LogConfig
}

// ClientConfig holds controller-side settings.
//
// DefaultTimeout of zero disables the event-wait timeout; it never means
// "time out immediately".
type ClientConfig struct {
	Endpoint         string        `envconfig:"ELECTRON_ENDPOINT" default:"ws://127.0.0.1:9333/ws"`
	HealthURL        string        `envconfig:"ELECTRON_HEALTH_URL" default:"http://127.0.0.1:9333/healthz"`
	AdminURL         string        `envconfig:"ELECTRON_ADMIN_URL" default:"http://127.0.0.1:9333"`
	DefaultTimeout   time.Duration `envconfig:"ELECTRON_DEFAULT_TIMEOUT" default:"30s"`
	ConnectTimeout   time.Duration `envconfig:"ELECTRON_CONNECT_TIMEOUT" default:"10s"`
	CallRate         float64       `envconfig:"ELECTRON_CALL_RATE" default:"0"`
	CallBurst        int           `envconfig:"ELECTRON_CALL_BURST" default:"16"`
	BreakerThreshold uint32        `envconfig:"ELECTRON_BREAKER_THRESHOLD" default:"3"`
	BreakerCooldown  time.Duration `envconfig:"ELECTRON_BREAKER_COOLDOWN" default:"5s"`
}

// TargetConfig holds settings of the simulated target server.
type TargetConfig struct {
	Host          string        `envconfig:"TARGET_HOST" default:"127.0.0.1"`
	Port          string        `envconfig:"TARGET_PORT" default:"9333"`
	WindowDelay   time.Duration `envconfig:"TARGET_WINDOW_DELAY" default:"100ms"`
	ScriptTimeout time.Duration `envconfig:"TARGET_SCRIPT_TIMEOUT" default:"5s"`
	CORSOrigins   []string      `envconfig:"TARGET_CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects negative durations and rates.
func (c *Config) Validate() error {
	if c.Client.DefaultTimeout < 0 {
		return fmt.Errorf("ELECTRON_DEFAULT_TIMEOUT must not be negative, got %s", c.Client.DefaultTimeout)
	}
	if c.Client.ConnectTimeout < 0 {
		return fmt.Errorf("ELECTRON_CONNECT_TIMEOUT must not be negative, got %s", c.Client.ConnectTimeout)
	}
	if c.Client.CallRate < 0 {
		return fmt.Errorf("ELECTRON_CALL_RATE must not be negative, got %v", c.Client.CallRate)
	}
	if c.Target.WindowDelay < 0 {
		return fmt.Errorf("TARGET_WINDOW_DELAY must not be negative, got %s", c.Target.WindowDelay)
	}
	return nil
}

// Address returns host:port of the target server.
func (t TargetConfig) Address() string {
	return t.Host + ":" + t.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			Endpoint:         "ws://127.0.0.1:9333/ws",
			HealthURL:        "http://127.0.0.1:9333/healthz",
			AdminURL:         "http://127.0.0.1:9333",
			DefaultTimeout:   30 * time.Second,
			ConnectTimeout:   10 * time.Second,
			CallBurst:        16,
			BreakerThreshold: 3,
			BreakerCooldown:  5 * time.Second,
		},
		Target: TargetConfig{
			Host:          "127.0.0.1",
			Port:          "9333",
			WindowDelay:   100 * time.Millisecond,
			ScriptTimeout: 5 * time.Second,
			CORSOrigins:   []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
