package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Poller   PollerConfig
	Worker   WorkerConfig
	Store    StoreConfig
	Facility FacilityConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
	CORSOrigins  []string
}

type PollerConfig struct {
	Enabled  bool
	URL      string
	Interval time.Duration
	Timeout  time.Duration
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type StoreConfig struct {
	Backend string
	DBPath  string
	Dir     string
	Redis   RedisConfig
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type FacilityConfig struct {
	File     string
	Revision string
}

type AuthConfig struct {
	SharedPassword string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 5),
			CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Poller: PollerConfig{
			Enabled:  getEnvBool("POLL_ENABLED", true),
			URL:      getEnv("ALERTS_URL", "http://127.0.0.1:5000/get_alerts"),
			Interval: getEnvDuration("POLL_INTERVAL", 30*time.Second),
			Timeout:  getEnvDuration("POLL_TIMEOUT", 15*time.Second),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 100),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "sqlite"),
			DBPath:  getEnv("DB_PATH", "./data/thirdeye.db"),
			Dir:     getEnv("STORE_DIR", "./data/store"),
			Redis: RedisConfig{
				Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
				Password:  getEnv("REDIS_PASSWORD", ""),
				DB:        getEnvInt("REDIS_DB", 0),
				KeyPrefix: getEnv("REDIS_KEY_PREFIX", "thirdeye"),
			},
		},
		Facility: FacilityConfig{
			File:     getEnv("FACILITY_FILE", ""),
			Revision: getEnv("FACILITY_REVISION", "campus-lake"),
		},
		Auth: AuthConfig{
			SharedPassword: getEnv("AUTH_SHARED_PASSWORD", "password"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per second")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Poller.URL == "" {
		return fmt.Errorf("alerts URL is required")
	}
	if c.Poller.Interval < time.Second {
		return fmt.Errorf("poll interval must be at least 1 second")
	}
	if c.Poller.Timeout <= 0 {
		return fmt.Errorf("poll timeout must be positive")
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("worker buffer size must not be negative")
	}

	switch c.Store.Backend {
	case "memory", "sqlite", "redis":
	case "file":
		if c.Store.Dir == "" {
			return fmt.Errorf("STORE_DIR is required for the file backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s", c.Store.Backend)
	}

	if c.Auth.SharedPassword == "" {
		return fmt.Errorf("shared password must not be empty")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
