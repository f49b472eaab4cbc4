package server

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"propcost/internal/logger"
	"propcost/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	ResolveModeAudit  = "audit"
	ResolveModeMutate = "mutate"
)

type SecurityConfig struct {
	AdminRoles        []string `json:"admin_roles" validate:"min=1,dive,required"`
	ResolveMode       string   `json:"resolve_mode" validate:"oneof=audit mutate"`
	ComputeTimeout    string   `json:"compute_timeout" validate:"required"`
	Timezone          string   `json:"timezone"`
	PersistCandidates bool     `json:"persist_candidates"`

	Timeout  time.Duration  `json:"-"`
	Location *time.Location `json:"-"`
}

type RateLimitConfig struct {
	Enabled    bool          `json:"enabled"`
	Limit      int           `json:"limit" validate:"required_if=Enabled true,gte=0"`
	Window     string        `json:"window"`
	WindowSize time.Duration `json:"-"`
}

type Config struct {
	Port string `validate:"required"`
	DB   struct {
		Dsn    string `validate:"required"`
		Driver string `validate:"required,oneof=sqlite3"`
	}
	Redis struct {
		Addr     string
		Password string
		DB       int `validate:"gte=0"`
	}
	Logging   logger.Config
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

// NewConfig reads and validates the JSON configuration file at path.
func NewConfig(path string) (Config, error) {
	configFile, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer configFile.Close()

	config, err := LoadConfig(configFile)
	if err != nil {
		return Config{}, err
	}
	log.Info().Str("path", path).Msg("Configuration extraction successful")
	return config, nil
}

// LoadConfig decodes r over the defaults, then parses and validates the
// derived fields.
func LoadConfig(r io.Reader) (Config, error) {
	config := DefaultConfig()
	if err := json.NewDecoder(r).Decode(&config); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Finalize(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func DefaultConfig() Config {
	var c Config
	c.Port = ":8080"
	c.DB.Driver = "sqlite3"
	c.DB.Dsn = "propcost.db?_foreign_keys=on"
	c.Redis.Addr = "localhost:6379"
	c.Logging = logger.Config{Level: "info"}
	c.Security = SecurityConfig{
		AdminRoles:     []string{models.RoleAdmin, models.RoleSecurityAdmin},
		ResolveMode:    ResolveModeAudit,
		ComputeTimeout: "10s",
	}
	c.RateLimit = RateLimitConfig{
		Enabled: true,
		Limit:   60,
		Window:  "1m",
	}
	return c
}

// Finalize validates c and fills in the derived fields.
func (c *Config) Finalize() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	timeout, err := time.ParseDuration(c.Security.ComputeTimeout)
	if err != nil || timeout <= 0 {
		return fmt.Errorf("invalid config: security.compute_timeout %q", c.Security.ComputeTimeout)
	}
	c.Security.Timeout = timeout

	c.Security.Location = time.Local
	if c.Security.Timezone != "" {
		loc, err := time.LoadLocation(c.Security.Timezone)
		if err != nil {
			return fmt.Errorf("invalid config: security.timezone: %w", err)
		}
		c.Security.Location = loc
	}

	if c.RateLimit.Enabled {
		window, err := time.ParseDuration(c.RateLimit.Window)
		if err != nil || window < time.Second {
			return fmt.Errorf("invalid config: rate_limit.window %q", c.RateLimit.Window)
		}
		c.RateLimit.WindowSize = window
	}
	return nil
}
