package service

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend names accepted by the *_BACKEND settings.
const (
	BackendMock   = "mock"
	BackendRemote = "remote"

	SlotsSQLite = "sqlite"
	SlotsRedis  = "redis"
	SlotsMemory = "memory"
)

type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	Port          string `env:"PORT" envDefault:"8000"`
	BaseURL       string `env:"BASE_URL" envDefault:"http://localhost:8000"`
	DBPath        string `env:"DB_PATH" envDefault:"./db/stationcargo.db"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"development-session-secret"`

	JWT    JWT    `envPrefix:"JWT_"`
	Auth   Auth   `envPrefix:"AUTH_"`
	API    API    `envPrefix:"API_"`
	Slots  Slots  `envPrefix:"SLOTS_"`
	Shell  Shell  `envPrefix:"SHELL_"`
	Waste  Waste  `envPrefix:"WASTE_"`
	Upload Upload `envPrefix:"UPLOAD_"`
}

// JWT configures the access tokens of the identity API.
type JWT struct {
	Secret string        `env:"SECRET" envDefault:"development-secret"`
	TTL    time.Duration `env:"TTL" envDefault:"12h"`
}

// Auth selects the identity backend of the session stores.
type Auth struct {
	Backend   string        `env:"BACKEND" envDefault:"mock"`
	MockDelay time.Duration `env:"MOCK_DELAY" envDefault:"1s"`
	// BaseURL of the identity API, BASE_URL when empty.
	BaseURL string `env:"BASE_URL"`
}

// API selects the cargo client the pages use.
type API struct {
	Backend string        `env:"BACKEND" envDefault:"remote"`
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	// MockDelay is the simulated latency of the mock backend.
	MockDelay time.Duration `env:"MOCK_DELAY" envDefault:"500ms"`
	// RequireAuth rejects anonymous writes on /api.
	RequireAuth bool `env:"REQUIRE_AUTH" envDefault:"false"`
}

// Slots selects where persisted credential records live.
type Slots struct {
	Backend   string        `env:"BACKEND" envDefault:"sqlite"`
	RedisAddr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisTTL  time.Duration `env:"REDIS_TTL" envDefault:"720h"`
}

type Shell struct {
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"30m"`
}

type Waste struct {
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`
	NextPickup    time.Duration `env:"NEXT_PICKUP" envDefault:"336h"`
}

type Upload struct {
	MaxSize int64 `env:"MAX_SIZE" envDefault:"10485760"`
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	switch c.Auth.Backend {
	case BackendMock, BackendRemote:
	default:
		return fmt.Errorf("invalid AUTH_BACKEND %q: want mock or remote", c.Auth.Backend)
	}
	switch c.API.Backend {
	case BackendMock, BackendRemote:
	default:
		return fmt.Errorf("invalid API_BACKEND %q: want mock or remote", c.API.Backend)
	}
	switch c.Slots.Backend {
	case SlotsSQLite, SlotsRedis, SlotsMemory:
	default:
		return fmt.Errorf("invalid SLOTS_BACKEND %q: want sqlite, redis or memory", c.Slots.Backend)
	}

	if c.Auth.BaseURL == "" {
		c.Auth.BaseURL = c.BaseURL
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = c.BaseURL
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("invalid UPLOAD_MAX_SIZE %d", c.Upload.MaxSize)
	}
	return nil
}

// Secure reports whether cookies must be marked Secure.
func (c *Config) Secure() bool {
	return c.Environment == "production"
}
