// Package config holds all agent configuration: provider selection, fixture
// locations, the attempt budget, and stage time budgets. Values come from an
// optional YAML file with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shark4real/ai-agent-challenge/internal/generator"
)

// Config holds agent configuration.
type Config struct {
	// LLM backend selection. Empty provider means detect from environment.
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`

	// Fixture and output locations.
	DataDir    string `yaml:"data_dir"`
	ParsersDir string `yaml:"parsers_dir"`

	// Loop settings.
	MaxAttempts int `yaml:"max_attempts"`

	// Stage time budgets, duration strings ("10s", "2m").
	GenerateTimeout string `yaml:"generate_timeout"`
	ValidateTimeout string `yaml:"validate_timeout"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		DataDir:         "data",
		ParsersDir:      "parsers",
		MaxAttempts:     3,
		GenerateTimeout: "2m",
		ValidateTimeout: "10s",
	}
}

// Load reads the YAML config at path (missing file is fine: defaults apply)
// and layers environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file: defaults + env.
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PARSEAGENT_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("PARSEAGENT_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("PARSEAGENT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PARSEAGENT_PARSERS_DIR"); v != "" {
		c.ParsersDir = v
	}
	if v := os.Getenv("PARSEAGENT_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxAttempts = n
		}
	}
}

// GenerateTimeoutDuration parses the generation time budget.
func (c *Config) GenerateTimeoutDuration() time.Duration {
	return parseDuration(c.GenerateTimeout, 2*time.Minute)
}

// ValidateTimeoutDuration parses the validation time budget.
func (c *Config) ValidateTimeoutDuration() time.Duration {
	return parseDuration(c.ValidateTimeout, 10*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ProviderConfig resolves the backend provider. An explicit provider in the
// config wins; its API key falls back to the provider's conventional
// environment variable. With no provider configured, detection walks the
// known key variables.
func (c *Config) ProviderConfig() (*generator.ProviderConfig, error) {
	if c.Provider == "" {
		pc, err := generator.DetectProvider()
		if err != nil {
			return nil, err
		}
		if c.Model != "" {
			pc.Model = c.Model
		}
		return pc, nil
	}

	key := c.APIKey
	if key == "" {
		switch c.Provider {
		case "groq":
			key = os.Getenv("GROQ_API_KEY")
		case "gemini":
			key = os.Getenv("GEMINI_API_KEY")
		case "openai":
			key = os.Getenv("OPENAI_API_KEY")
		}
	}
	if key == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", c.Provider)
	}

	return &generator.ProviderConfig{
		Provider: c.Provider,
		APIKey:   key,
		Model:    c.Model,
	}, nil
}
