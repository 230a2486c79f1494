package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Backend selects where the user-aggregate cache lives.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	DatabaseURL string `toml:"database_url"`
	Port        string `toml:"port"`
	CORSOrigin  string `toml:"cors_origin"`

	// JWTSecret enables the bearer-auth middleware when non-empty.
	JWTSecret string `toml:"jwt_secret"`

	Redis     RedisConfig     `toml:"redis"`
	Cache     CacheConfig     `toml:"cache"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type RateLimitConfig struct {
	Max           int `toml:"max"`
	WindowSeconds int `toml:"window_seconds"`
}

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type CacheConfig struct {
	Backend    string `toml:"backend"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Load builds the configuration from an optional TOML file (CONFIG_FILE)
// with environment variables taking precedence over file values.
func Load() (Config, error) {
	cfg := Config{
		Port:       "8080",
		CORSOrigin: "*",
		Redis:      RedisConfig{Addr: "localhost:6379"},
		Cache:      CacheConfig{Backend: BackendRedis, TTLSeconds: 25},
		RateLimit:  RateLimitConfig{Max: 60, WindowSeconds: 60},
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.Cache.Backend != BackendRedis && cfg.Cache.Backend != BackendMemory {
		return Config{}, fmt.Errorf("invalid cache backend %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 25
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Port, "PORT")
	setString(&cfg.CORSOrigin, "CORS_ORIGIN")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Cache.Backend, "CACHE_BACKEND")
	setInt(&cfg.Cache.TTLSeconds, "CACHE_TTL_SECONDS")
	setInt(&cfg.RateLimit.Max, "RATE_LIMIT_MAX")
	setInt(&cfg.RateLimit.WindowSeconds, "RATE_LIMIT_WINDOW_SECONDS")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}
