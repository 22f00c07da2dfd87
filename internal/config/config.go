package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/ilyakaznacheev/cleanenv"
	do "github.com/samber/do/v2"
)

const (
	ProviderGitHub = "github"
	ProviderGitLab = "gitlab"
)

// ErrMissingToken is returned when a command needs the remote API but no token is configured.
var ErrMissingToken = errors.New("MTNG_TOKEN or GH_TOKEN environment variable is required")

var Package = do.Package(
	do.Lazy[*Config](NewConfig),
)

// Config holds the application configuration.
type Config struct {
	Provider string `env:"MTNG_PROVIDER" env-default:"github"`
	Token    string `env:"MTNG_TOKEN,GH_TOKEN"`
	BaseURL  string `env:"MTNG_BASE_URL"`

	CacheDir string        `env:"MTNG_CACHE_DIR"`
	CacheTTL time.Duration `env:"MTNG_CACHE_TTL" env-default:"300s"`
	NoCache  bool          `env:"MTNG_NO_CACHE" env-default:"false"`

	RateInterval time.Duration `env:"MTNG_RATE_INTERVAL" env-default:"100ms"`
	RateBurst    int           `env:"MTNG_RATE_BURST" env-default:"10"`

	LogLevel  string `env:"MTNG_LOG_LEVEL" env-default:"warn"`
	LogFormat string `env:"MTNG_LOG_FORMAT" env-default:"text"`

	EventExportURL string `env:"MTNG_EVENT_EXPORT_URL"`
}

// NewConfig creates a new configuration from environment variables (for DI).
func NewConfig(_ do.Injector) (*Config, error) {
	return New()
}

// New creates a new configuration from an optional .env file and the environment.
func New() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(".env", &cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read dotenv file: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	if cfg.CacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.CacheDir = filepath.Join(dir, "mtng")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration as a whole. The token is not required
// here since offline commands run without it; see RequireToken.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderGitHub, ProviderGitLab)),
		validation.Field(&c.CacheDir, validation.Required),
		validation.Field(&c.CacheTTL, validation.By(positiveDuration)),
		validation.Field(&c.RateInterval, validation.By(nonNegativeDuration)),
		validation.Field(&c.RateBurst, validation.Min(1)),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.Required, validation.In("json", "text")),
	)
}

// RequireToken fails when no API token is configured.
func (c *Config) RequireToken() error {
	if c.Token == "" {
		return ErrMissingToken
	}

	return nil
}

func positiveDuration(value interface{}) error {
	if d, _ := value.(time.Duration); d <= 0 {
		return errors.New("must be positive")
	}

	return nil
}

func nonNegativeDuration(value interface{}) error {
	if d, _ := value.(time.Duration); d < 0 {
		return errors.New("must not be negative")
	}

	return nil
}
