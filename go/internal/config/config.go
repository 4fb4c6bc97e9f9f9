// Package config loads the board's settings: defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Window  WindowConfig  `yaml:"window"`
	Gateway GatewayConfig `yaml:"gateway"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type StoreConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout of zero means requests are bounded only by the caller.
	Timeout time.Duration `yaml:"timeout"`
}

type WindowConfig struct {
	MaxOnScreen             int           `yaml:"max_on_screen"`
	ResyncInterval          time.Duration `yaml:"resync_interval"`
	TickInterval            time.Duration `yaml:"tick_interval"`
	KeepLastGoodOnMalformed bool          `yaml:"keep_last_good_on_malformed"`
}

type GatewayConfig struct {
	Port           string        `yaml:"port"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PongTimeout    time.Duration `yaml:"pong_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	StreamName    string `yaml:"stream_name"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Enabled reports whether board events should be published.
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the board defaults.
func Default() Config {
	return Config{
		Store: StoreConfig{
			BaseURL: "http://localhost:8080",
		},
		Window: WindowConfig{
			MaxOnScreen:    5,
			ResyncInterval: 15 * time.Second,
			TickInterval:   time.Second,
		},
		Gateway: GatewayConfig{
			Port:           "8081",
			WriteTimeout:   10 * time.Second,
			PongTimeout:    60 * time.Second,
			PingInterval:   54 * time.Second,
			MaxMessageSize: 512,
		},
		NATS: NATSConfig{
			StreamName:    "RACEBOARD_EVENTS",
			SubjectPrefix: "raceboard",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load builds the config. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Store.BaseURL = getEnv("STORE_URL", c.Store.BaseURL)
	c.Gateway.Port = getEnv("BOARD_PORT", c.Gateway.Port)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)

	if v := os.Getenv("MAX_ON_SCREEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_ON_SCREEN %q: %w", v, err)
		}
		c.Window.MaxOnScreen = n
	}

	var err error
	if c.Window.ResyncInterval, err = getEnvAsDuration("RESYNC_INTERVAL", c.Window.ResyncInterval); err != nil {
		return err
	}
	if c.Window.TickInterval, err = getEnvAsDuration("TICK_INTERVAL", c.Window.TickInterval); err != nil {
		return err
	}
	return nil
}

// Validate checks the values the board cannot run without.
func (c Config) Validate() error {
	if c.Store.BaseURL == "" {
		return fmt.Errorf("store base url is required")
	}
	if c.Window.MaxOnScreen <= 0 {
		return fmt.Errorf("max_on_screen must be positive, got %d", c.Window.MaxOnScreen)
	}
	if c.Window.ResyncInterval <= 0 || c.Window.TickInterval <= 0 {
		return fmt.Errorf("resync and tick intervals must be positive")
	}
	if c.Gateway.PingInterval >= c.Gateway.PongTimeout {
		return fmt.Errorf("gateway ping_interval must be shorter than pong_timeout")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
