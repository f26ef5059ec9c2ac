package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/coach/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 0.9, cfg.TopP)
	assert.Equal(t, 600, cfg.MaxTokens)
	assert.Equal(t, "comprehensive", cfg.DetailLevel)
	assert.Equal(t, 120*time.Second, cfg.LLMTimeout)
	assert.False(t, cfg.MockMode())
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("COACH_TEMPERATURE", "0.2")
	t.Setenv("COACH_MAX_TOKENS", "not-a-number")
	t.Setenv("COACH_MODE", "mock")
	t.Setenv("COACH_LLM_TIMEOUT_MS", "1500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 600, cfg.MaxTokens)
	assert.True(t, cfg.MockMode())
	assert.Equal(t, 1500*time.Millisecond, cfg.LLMTimeout)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coach.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: coach-small
top_p: 0.5
fallbacks:
  start: "Pick one thing and begin."
`), 0o600))
	t.Setenv("COACH_CONFIG_FILE", path)
	t.Setenv("COACH_TOP_P", "0.8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "coach-small", cfg.Model)
	assert.Equal(t, 0.8, cfg.TopP)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, "Pick one thing and begin.", cfg.Fallbacks[domain.SessionTypeStart])
	assert.Equal(t, "coach-small", cfg.LLMParams().Model)
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv("COACH_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown session type", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "coach.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fallbacks:\n  nap: zzz\n"), 0o600))
		t.Setenv("COACH_CONFIG_FILE", path)
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := &Config{HTTPPort: 0, Temperature: 3, TopP: 0, MaxTokens: 0}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"HTTP_PORT", "DATABASE_URL", "COACH_LLM_URL", "COACH_MODEL", "temperature", "top_p", "max_tokens"} {
		assert.Contains(t, err.Error(), want)
	}

	mock := &Config{HTTPPort: 8080, DatabaseURL: ":memory:", Mode: "MOCK", Temperature: 0.7, TopP: 0.9, MaxTokens: 10}
	assert.NoError(t, mock.Validate())
}
