package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the application configuration.
type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"development"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	ServerPort  int    `yaml:"port" env:"PORT" env-default:"8080"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL" env-default:"file:chaptermark.db"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`

	JWTSecret  string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	BcryptCost int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`

	OpenAI OpenAIConfig `yaml:"openai"`

	RateLimitWindow time.Duration `yaml:"rate_limit_window" env:"RATE_LIMIT_WINDOW" env-default:"60s"`
	RateLimitMax    int           `yaml:"rate_limit_max" env:"RATE_LIMIT_MAX" env-default:"10"`
	TrustProxy      bool          `yaml:"trust_proxy" env:"TRUST_PROXY" env-default:"false"`

	CORSOrigins    []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:3000"`
	EventRetention time.Duration `yaml:"event_retention" env:"EVENT_RETENTION" env-default:"720h"`
}

// OpenAIConfig configures the chapter/title generation backend.
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key" env:"OPENAI_API_KEY" env-required:"true"`
	BaseURL string        `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model   string        `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	Timeout time.Duration `yaml:"timeout" env:"GENERATION_TIMEOUT" env-default:"60s"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from the YAML file named by CONFIG_PATH, if any,
// with environment variables taking precedence over file values.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SeedConfig is the subset of settings the owner seeding command needs.
type SeedConfig struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"development"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL" env-default:"file:chaptermark.db"`
	BcryptCost  int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// LoadSeed reads SeedConfig the same way Load reads Config.
func LoadSeed() (*SeedConfig, error) {
	var cfg SeedConfig

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	if c.OpenAI.Timeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive, got %s", c.OpenAI.Timeout)
	}
	return nil
}
