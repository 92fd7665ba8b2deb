package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"

	defaultPort            = "3001"
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
	defaultCORSOrigin      = "*"
	defaultDBPingTimeout   = 5 * time.Second
	defaultShutdownTimeout = 15 * time.Second
)

type Config struct {
	Port            string
	DBDriver        string
	DSN             string
	JWTSecret       string
	LogLevel        string
	LogFormat       string
	CORSOrigin      string
	DBPingTimeout   time.Duration
	ShutdownTimeout time.Duration
}

// LoadEnvFile loads variables from path into the process environment without
// overriding values that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", defaultPort),
		DBDriver:        getEnv("DB_DRIVER", DriverMySQL),
		DSN:             os.Getenv("DSN"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LogLevel:        getEnv("LOG_LEVEL", defaultLogLevel),
		LogFormat:       getEnv("LOG_FORMAT", defaultLogFormat),
		CORSOrigin:      getEnv("CORS_ALLOWED_ORIGIN", defaultCORSOrigin),
		DBPingTimeout:   defaultDBPingTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	var err error
	if cfg.DBPingTimeout, err = getEnvDuration("DB_PING_TIMEOUT", defaultDBPingTimeout); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.DSN == "" {
			errs = append(errs, errors.New("DSN is required for the mysql driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
