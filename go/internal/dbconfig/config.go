package dbconfig

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config holds Postgres connection settings for the event store.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// AppName is reported to Postgres as application_name.
	AppName string
}

// NewConfigFromEnv reads DB_* environment variables (with defaults).
func NewConfigFromEnv() Config {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}

	return Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "raceboard"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		AppName:  getEnv("DB_APP_NAME", "raceboard"),
	}
}

// DSN returns the Postgres connection URL.
func (c Config) DSN() string {
	return c.url(url.UserPassword(c.User, c.Password))
}

// String returns the DSN with the password masked, for logging.
func (c Config) String() string {
	return c.url(url.UserPassword(c.User, "xxxxx"))
}

func (c Config) url(user *url.Userinfo) string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.AppName != "" {
		q.Set("application_name", c.AppName)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
