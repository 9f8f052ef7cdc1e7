// Package config loads the storefront configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fjod/furstore/internal/logger"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Backend BackendConfig `yaml:"backend"`
	Redis   RedisConfig   `yaml:"redis"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Outbox  OutboxConfig  `yaml:"outbox"`
	Log     logger.Config `yaml:"log"`
}

type HTTPConfig struct {
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	SecureCookies      bool          `yaml:"secure_cookies"`
}

type BackendConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// RedisConfig with an empty Addr selects the in-process caches.
type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	ProductTTL time.Duration `yaml:"product_ttl"`
	LockTTL    time.Duration `yaml:"lock_ttl"`
}

// MongoConfig with an empty URI keeps sessions in the cache only.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type LedgerConfig struct {
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	MigrationsPath string        `yaml:"migrations_path"`
	StaleAfter     time.Duration `yaml:"stale_after"`
}

// OutboxConfig picks the broker: kafka when brokers are set, else amqp when a URL is set.
// With neither the poller does not run.
type OutboxConfig struct {
	KafkaBrokers []string      `yaml:"kafka_brokers"`
	Topic        string        `yaml:"topic"`
	AMQPURL      string        `yaml:"amqp_url"`
	Exchange     string        `yaml:"exchange"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:               "8080",
			RequestTimeout:     30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxRequestBodySize: 1 << 20, // 1MB
			AllowedOrigins:     []string{"http://localhost:3000"},
		},
		Backend: BackendConfig{
			BaseURL:     "http://localhost:8000/api",
			Timeout:     10 * time.Second,
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			SessionTTL: 30 * time.Minute,
			ProductTTL: 5 * time.Minute,
			LockTTL:    30 * time.Second,
		},
		Mongo: MongoConfig{Database: "furstore"},
		Ledger: LedgerConfig{
			Driver:     "sqlite",
			DSN:        "file:furstore.db?_pragma=busy_timeout(5000)",
			StaleAfter: 2 * time.Minute,
		},
		Outbox: OutboxConfig{
			Topic:        "storefront-orders",
			Exchange:     "storefront",
			PollInterval: time.Second,
		},
		Log: logger.Config{Level: "info"},
	}
}

// Load reads path (optional; a missing file keeps the defaults), then .env,
// then the process environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTP.Port = getEnv("HTTP_PORT", c.HTTP.Port)
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.HTTP.AllowedOrigins = splitList(v)
	}
	c.Backend.BaseURL = getEnv("BACKEND_URL", c.Backend.BaseURL)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DATABASE", c.Mongo.Database)
	c.Ledger.Driver = getEnv("LEDGER_DRIVER", c.Ledger.Driver)
	c.Ledger.DSN = getEnv("LEDGER_DSN", c.Ledger.DSN)
	c.Ledger.MigrationsPath = getEnv("LEDGER_MIGRATIONS_PATH", c.Ledger.MigrationsPath)
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		c.Outbox.KafkaBrokers = splitList(v)
	}
	c.Outbox.AMQPURL = getEnv("AMQP_URL", c.Outbox.AMQPURL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	if v := getEnv("LOG_PRETTY", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_PRETTY %q: %w", v, err)
		}
		c.Log.Pretty = b
	}
	if v := getEnv("SECURE_COOKIES", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SECURE_COOKIES %q: %w", v, err)
		}
		c.HTTP.SecureCookies = b
	}
	if v := getEnv("REQUEST_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
		c.HTTP.RequestTimeout = d
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if port, err := strconv.Atoi(c.HTTP.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be a valid port, got %q", c.HTTP.Port))
	}
	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, errors.New("http.request_timeout must be positive"))
	}
	if c.HTTP.MaxRequestBodySize <= 0 {
		errs = append(errs, errors.New("http.max_request_body_size must be positive"))
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("backend.base_url must be an http(s) URL, got %q", c.Backend.BaseURL))
	}
	switch c.Ledger.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("ledger.driver must be postgres or sqlite, got %q", c.Ledger.Driver))
	}
	if c.Ledger.DSN == "" {
		errs = append(errs, errors.New("ledger.dsn is required"))
	}
	if c.Mongo.URI != "" && c.Mongo.Database == "" {
		errs = append(errs, errors.New("mongo.database is required when mongo.uri is set"))
	}
	if c.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("outbox.poll_interval must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
