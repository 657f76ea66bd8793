// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config holds all application configuration.
type Config struct {
	// Provider selects the model backend: "openai", "anthropic" or "mock".
	Provider string
	// Model is the model name passed to the provider. Empty uses the
	// provider's default.
	Model string
	// SimulatorModel is the model name used for the scenario customer
	// simulator. Empty falls back to Model.
	SimulatorModel string
	// JudgeModel is the model name used for the scenario judge. Empty falls
	// back to Model.
	JudgeModel string

	// Addr is the HTTP listen address for serve mode.
	Addr string
	// DBPath is the SQLite session database path. Empty keeps sessions in
	// memory only.
	DBPath string
	// ResultsDir is where scenario results are written as JSON.
	ResultsDir string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from a .env file (if present) and the
// environment. Environment variables win over .env entries.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Provider:       strings.ToLower(getEnv("DESKMESH_PROVIDER", defaultProvider())),
		Model:          getEnv("DESKMESH_MODEL", ""),
		SimulatorModel: getEnv("DESKMESH_SIMULATOR_MODEL", ""),
		JudgeModel:     getEnv("DESKMESH_JUDGE_MODEL", ""),
		Addr:           getEnv("DESKMESH_ADDR", ":8080"),
		DBPath:         getEnv("DESKMESH_DB_PATH", ""),
		ResultsDir:     getEnv("DESKMESH_RESULTS_DIR", "./results"),
		LogLevel:       getEnv("DESKMESH_LOG_LEVEL", "info"),
		LogFormat:      getEnv("DESKMESH_LOG_FORMAT", "text"),
	}
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderAnthropic:
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Addr == "" {
		return fmt.Errorf("DESKMESH_ADDR cannot be empty")
	}
	if c.ResultsDir == "" {
		return fmt.Errorf("DESKMESH_RESULTS_DIR cannot be empty")
	}
	return nil
}

// defaultProvider picks a backend based on which API keys are present, so a
// bare environment still gets a working mock setup.
func defaultProvider() string {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return ProviderAnthropic
	}
	return ProviderMock
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
