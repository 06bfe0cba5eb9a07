package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearAgentEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"PARSEAGENT_PROVIDER", "PARSEAGENT_MODEL", "PARSEAGENT_DATA_DIR",
		"PARSEAGENT_PARSERS_DIR", "PARSEAGENT_MAX_ATTEMPTS",
		"GROQ_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(v, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearAgentEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "parsers", cfg.ParsersDir)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.GenerateTimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.ValidateTimeoutDuration())
}

func TestLoad_YAMLFile(t *testing.T) {
	clearAgentEnv(t)

	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: gemini
model: gemini-2.0-flash
data_dir: fixtures
max_attempts: 5
validate_timeout: 30s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, "fixtures", cfg.DataDir)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.ValidateTimeoutDuration())
	assert.Equal(t, "parsers", cfg.ParsersDir, "unset keys keep defaults")
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearAgentEnv(t)

	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearAgentEnv(t)

	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: groq\nmax_attempts: 2\n"), 0o644))

	t.Setenv("PARSEAGENT_PROVIDER", "gemini")
	t.Setenv("PARSEAGENT_MAX_ATTEMPTS", "4")
	t.Setenv("PARSEAGENT_DATA_DIR", "/srv/statements")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, "/srv/statements", cfg.DataDir)
}

func TestLoad_IgnoresInvalidMaxAttemptsOverride(t *testing.T) {
	clearAgentEnv(t)
	t.Setenv("PARSEAGENT_MAX_ATTEMPTS", "zero")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestTimeoutDurations_FallBackOnGarbage(t *testing.T) {
	cfg := &Config{GenerateTimeout: "soon", ValidateTimeout: "-5s"}
	assert.Equal(t, 2*time.Minute, cfg.GenerateTimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.ValidateTimeoutDuration())
}

func TestProviderConfig_ExplicitProviderWithKey(t *testing.T) {
	clearAgentEnv(t)

	cfg := &Config{Provider: "groq", APIKey: "inline-key", Model: "llama-3.3-70b-versatile"}
	pc, err := cfg.ProviderConfig()
	require.NoError(t, err)

	assert.Equal(t, "groq", pc.Provider)
	assert.Equal(t, "inline-key", pc.APIKey)
	assert.Equal(t, "llama-3.3-70b-versatile", pc.Model)
}

func TestProviderConfig_KeyFallsBackToEnv(t *testing.T) {
	clearAgentEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg := &Config{Provider: "gemini"}
	pc, err := cfg.ProviderConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-key", pc.APIKey)
}

func TestProviderConfig_MissingKey(t *testing.T) {
	clearAgentEnv(t)

	cfg := &Config{Provider: "openai"}
	_, err := cfg.ProviderConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `provider "openai"`)
}

func TestProviderConfig_DetectionWithModelOverride(t *testing.T) {
	clearAgentEnv(t)
	t.Setenv("GROQ_API_KEY", "detected-key")

	cfg := &Config{Model: "llama-3.1-70b"}
	pc, err := cfg.ProviderConfig()
	require.NoError(t, err)

	assert.Equal(t, "groq", pc.Provider)
	assert.Equal(t, "detected-key", pc.APIKey)
	assert.Equal(t, "llama-3.1-70b", pc.Model)
}
