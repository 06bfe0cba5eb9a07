package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
}

func TestDetectProvider_Priority(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg, err := DetectProvider()
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.Provider)
	assert.Equal(t, "groq-key", cfg.APIKey)
}

func TestDetectProvider_FallsThroughToGemini(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := DetectProvider()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
}

func TestDetectProvider_NoKeys(t *testing.T) {
	clearProviderEnv(t)

	_, err := DetectProvider()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestNewClientFromConfig_UnknownProvider(t *testing.T) {
	_, err := NewClientFromConfig(context.Background(), &ProviderConfig{Provider: "llama-farm", APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewClientFromConfig_Groq(t *testing.T) {
	c, err := NewClientFromConfig(context.Background(), &ProviderConfig{Provider: "groq", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "groq", c.Name())
}

func TestNewClientFromConfig_MissingKey(t *testing.T) {
	_, err := NewClientFromConfig(context.Background(), &ProviderConfig{Provider: "groq"})
	require.Error(t, err)
}

type scriptedClient struct {
	name  string
	reply string
	err   error
	calls int
}

func (s *scriptedClient) Name() string { return s.name }

func (s *scriptedClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestGenerator_Generate(t *testing.T) {
	client := &scriptedClient{name: "mock", reply: "package main"}
	gen := New(client, 0, nil)

	raw, err := gen.Generate(context.Background(), Request{TargetName: "icici"})
	require.NoError(t, err)
	assert.Equal(t, "package main", raw)
	assert.Equal(t, 1, client.calls)
}

func TestGenerator_WrapsBackendError(t *testing.T) {
	boom := errors.New("rate limited")
	client := &scriptedClient{name: "mock", err: boom}
	gen := New(client, 0, nil)

	_, err := gen.Generate(context.Background(), Request{TargetName: "icici"})
	require.Error(t, err)

	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "mock", genErr.Provider)
	assert.ErrorIs(t, err, boom)
}
