package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Prefix is the environment variable prefix, e.g. CLOUDLY_HTTP_PORT.
const Prefix = "CLOUDLY"

// Config holds the configuration for the Cloudly service.
// Provider keys are also read without the prefix (VAPI_API_KEY, ...).
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage: DB_DRIVER=auto picks postgres when a DSN is set, sqlite otherwise.
	DBDriver                string `envconfig:"DB_DRIVER" default:"auto"`
	DataDir                 string `envconfig:"DATA_DIR" default:"data"`
	SQLitePath              string `envconfig:"SQLITE_PATH" default:""`
	PostgresDSN             string `envconfig:"POSTGRES_DSN" default:""`
	BootstrapTimeoutSeconds int    `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`

	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`

	// Auth
	JWTSecret string `envconfig:"JWT_SECRET" default:""`

	// Assistant provider
	VapiBaseURL string `envconfig:"VAPI_BASE_URL" default:"https://api.vapi.ai"`
	VapiAPIKey  string `envconfig:"VAPI_API_KEY" default:""`

	// Voice provider
	ElevenLabsBaseURL string `envconfig:"ELEVEN_LABS_BASE_URL" default:"https://api.elevenlabs.io"`
	ElevenLabsAPIKey  string `envconfig:"ELEVEN_LABS_API_KEY" default:""`

	// Companion TTS
	SmallestTTSURL string `envconfig:"SMALLEST_TTS_URL" default:"https://waves-api.smallest.ai/api/v1/tts"`
	SmallestAPIKey string `envconfig:"SMALLEST_API_KEY" default:""`

	AssistantModel         string `envconfig:"ASSISTANT_MODEL" default:"gpt-4o"`
	CompanionModel         string `envconfig:"COMPANION_MODEL" default:"gpt-4"`
	VoiceTimeoutSeconds    int    `envconfig:"VOICE_TIMEOUT_SECONDS" default:"30"`
	ProviderTimeoutSeconds int    `envconfig:"PROVIDER_TIMEOUT_SECONDS" default:"30"`
}

// ResolveDefaults validates the storage settings and derives DBDriver and
// SQLitePath when left empty or "auto".
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = "sqlite"
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		}
	}

	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			dir := c.DataDir
			if dir == "" {
				dir = "data"
			}
			c.SQLitePath = filepath.Join(dir, "cloudly.db")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

// New loads an optional .env file (CLOUDLY_ENV_FILE overrides the path), then
// parses CLOUDLY_* environment variables. Variables already set in the
// environment win over the file.
func New() (*Config, error) {
	envFile := os.Getenv(Prefix + "_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("vapi_base_url", cfg.VapiBaseURL).
		Bool("vapi_key_present", cfg.VapiAPIKey != "").
		Bool("eleven_labs_key_present", cfg.ElevenLabsAPIKey != "").
		Bool("smallest_key_present", cfg.SmallestAPIKey != "").
		Bool("jwt_secret_present", cfg.JWTSecret != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8080,
		DBDriver:                  "sqlite",
		SQLitePath:                ":memory:",
		BootstrapTimeoutSeconds:   5,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
		VapiBaseURL:               "http://127.0.0.1:0",
		ElevenLabsBaseURL:         "http://127.0.0.1:0",
		SmallestTTSURL:            "https://waves-api.smallest.ai/api/v1/tts",
		AssistantModel:            "gpt-4o",
		CompanionModel:            "gpt-4",
		VoiceTimeoutSeconds:       30,
		ProviderTimeoutSeconds:    5,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) BootstrapTimeout() time.Duration {
	return time.Duration(c.BootstrapTimeoutSeconds) * time.Second
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}

func (c *Config) HealthProbeTimeout() time.Duration {
	return time.Duration(c.HealthProbeTimeoutSeconds) * time.Second
}
