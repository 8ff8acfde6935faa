// Package config loads environment-based configuration for the server.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// jwtSecretMinLen is the minimum length for the JWT signing secret.
// Shorter secrets do not provide enough entropy for HMAC-SHA256.
const jwtSecretMinLen = 32

// Config holds all environment-based configuration.
type Config struct {
	// HTTP server settings.
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8000"`

	// BaseURL is the public URL of this server. It is used to build all
	// OAuth metadata URLs and the token issuer claim.
	BaseURL string `env:"BASE_URL"`

	// Intervals.icu API settings.
	AthleteID           string `env:"ATHLETE_ID"`
	IntervalsAPIKey     string `env:"API_KEY"`
	IntervalsAPIBaseURL string `env:"INTERVALS_API_BASE_URL" envDefault:"https://intervals.icu/api/v1"`

	// OAuth settings.
	JWTSecretKey string `env:"JWT_SECRET_KEY"`
	JWTAlgorithm string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	Audience     string `env:"OAUTH_AUDIENCE" envDefault:"intervals-mcp-server"`
	Scope        string `env:"OAUTH_SCOPE" envDefault:"intervals:read intervals:write"`

	// ClientsFile is the flat file holding the serialized client registry.
	ClientsFile string `env:"OAUTH_CLIENTS_FILE" envDefault:"oauth_clients.json"`

	// MCPAPIKey protects the MCP endpoint when OAuth is not used. When
	// empty, the API-key check passes open (development mode).
	MCPAPIKey string `env:"MCP_API_KEY"`

	// Environment controls log format; LogLevel controls verbosity.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables. It first attempts
// to load a .env file if present, then parses env vars and validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required (public URL used for OAuth callbacks)")
	}

	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}

	if len(c.JWTSecretKey) < jwtSecretMinLen {
		return fmt.Errorf("JWT_SECRET_KEY must be at least %d characters long", jwtSecretMinLen)
	}

	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512", "RS256", "RS384", "RS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}

	if c.AthleteID == "" {
		return fmt.Errorf("ATHLETE_ID is required (your Intervals.icu athlete ID, e.g. i123456)")
	}

	if c.IntervalsAPIKey == "" {
		return fmt.Errorf("API_KEY is required (your Intervals.icu API key)")
	}

	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Scopes returns the configured scope string split into individual values.
func (c *Config) Scopes() []string {
	return strings.Fields(c.Scope)
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
