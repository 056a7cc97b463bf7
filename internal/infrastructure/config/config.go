package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string        `env:"PORT,           default=8080"`
	Env           string        `env:"ENV,            default=development"`
	LogLevel      string        `env:"LOG_LEVEL,      default=info"`
	SessionSecret string        `env:"SESSION_SECRET"`
	CookieTTL     time.Duration `env:"COOKIE_TTL,     default=168h"`

	Backend   BackendConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Mongo     MongoConfig
}

// BackendConfig points at the Laravel API the gateway fronts.
type BackendConfig struct {
	BaseURL string        `env:"LARAVEL_API_URL, default=http://localhost:8000/api"`
	Timeout time.Duration `env:"PROXY_TIMEOUT,   default=10s"`
}

// RateLimitConfig controls the fixed-window limiter on the auth endpoints.
// Store is "memory" or "redis".
type RateLimitConfig struct {
	Store        string        `env:"RATE_LIMIT_STORE,  default=memory"`
	AuthRequests int           `env:"RATE_LIMIT_AUTH,   default=5"`
	Window       time.Duration `env:"RATE_LIMIT_WINDOW, default=60s"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// MongoConfig configures the optional audit trail. An empty URI disables it.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=edge_gateway"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// IsDevelopment reports whether the gateway runs in development mode.
// Error responses include underlying messages only in this mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
