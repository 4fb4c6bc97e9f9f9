package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	backendFile     = "file"
	backendPostgres = "postgres"
)

// Config is the store server's configuration. Flags override the
// environment, which overrides the defaults.
type Config struct {
	Backend  string `yaml:"backend"`
	FilePath string `yaml:"file_path"`
	Port     int    `yaml:"port"`
}

func defaultConfig() Config {
	return Config{
		Backend:  getEnv("STORE_BACKEND", backendFile),
		FilePath: getEnv("STORE_FILE", "public/info.txt"),
		Port:     getEnvAsInt("PORT", 8080),
	}
}

func (c Config) validate() error {
	switch c.Backend {
	case backendFile:
		if c.FilePath == "" {
			return fmt.Errorf("file backend requires a file path")
		}
	case backendPostgres:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, backendFile, backendPostgres)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfigFile overlays a YAML config file onto cfg.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}
