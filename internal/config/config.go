package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the API server and its tools.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	HTTP     HTTPConfig
}

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL     string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether list caching is configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type HTTPConfig struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	EnableHSTS     bool
}

var defaults = map[string]any{
	"app_addr":         ":3001",
	"shutdown_timeout": "10s",
	"db_timeout":       "3s",
	"cors_origin":      "http://localhost:5173",
	"redis_addr":       "",
	"redis_password":   "",
	"redis_db":         0,
	"cache_ttl":        "30s",
	"rate_limit_rps":   20,
	"rate_limit_burst": 40,
	"max_body_bytes":   1 << 20,
	"enable_hsts":      false,
}

// LoadEnvFiles reads .env and .env.local into the process environment.
// Variables already set by the runtime (e.g. Docker) are not overridden.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load reads the configuration from the environment, after LoadEnvFiles,
// and from an optional booktracker.yaml in the working directory or
// ./config. Environment variables win over the file.
func Load() (*Config, error) {
	LoadEnvFiles()

	v := viper.New()
	v.SetConfigName("booktracker")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "DATABASE_URL", "DB_DSN"); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:            v.GetString("app_addr"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Database: DatabaseConfig{
			URL:     strings.TrimSpace(v.GetString("database_url")),
			Timeout: v.GetDuration("db_timeout"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("redis_addr")),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			TTL:      v.GetDuration("cache_ttl"),
		},
		HTTP: HTTPConfig{
			CORSOrigins:    splitList(v.GetString("cors_origin")),
			RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
			RateLimitBurst: v.GetInt("rate_limit_burst"),
			MaxBodyBytes:   v.GetInt64("max_body_bytes"),
			EnableHSTS:     v.GetBool("enable_hsts"),
		},
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports the first setting the API server cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Database.URL == "":
		return errors.New("DATABASE_URL is required")
	case c.Server.Addr == "":
		return errors.New("APP_ADDR must not be empty")
	case c.Database.Timeout <= 0:
		return fmt.Errorf("DB_TIMEOUT must be positive, got %s", c.Database.Timeout)
	case c.Redis.Enabled() && c.Redis.TTL <= 0:
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.Redis.TTL)
	case c.HTTP.RateLimitRPS <= 0 || c.HTTP.RateLimitBurst <= 0:
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	case c.HTTP.MaxBodyBytes <= 0:
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	return nil
}
