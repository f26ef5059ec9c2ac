// Package config provides configuration for the coaching service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xiaot623/gogo/coach/domain"
	"github.com/xiaot623/gogo/coach/llm"
)

// Config holds the coaching service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Coaching endpoint
	LLMURL     string
	LLMAPIKey  string
	LLMTimeout time.Duration
	Mode       string

	// Model parameters
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	DetailLevel string

	// Static fallback messages keyed by session type
	Fallbacks map[domain.SessionType]string

	// WebSocket settings
	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
	WSReadTimeout    time.Duration
	WSMaxMessageSize int64

	// Logging
	LogLevel string

	ConfigFile string
}

// fileConfig is the optional YAML overlay. Unset fields keep their defaults.
type fileConfig struct {
	Model       *string           `yaml:"model"`
	Temperature *float64          `yaml:"temperature"`
	TopP        *float64          `yaml:"top_p"`
	MaxTokens   *int              `yaml:"max_tokens"`
	DetailLevel *string           `yaml:"detail_level"`
	Fallbacks   map[string]string `yaml:"fallbacks"`
}

// Load loads configuration from environment variables. When COACH_CONFIG_FILE
// names a YAML file its values replace the built-in defaults; environment
// variables still take precedence over both.
func Load() (*Config, error) {
	cfg := &Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   600,
		DetailLevel: "comprehensive",
		ConfigFile:  getEnv("COACH_CONFIG_FILE", ""),
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	cfg.HTTPPort = getEnvInt("HTTP_PORT", 8080)
	cfg.DatabaseURL = getEnv("DATABASE_URL", "file:coach.db?cache=shared&mode=rwc")
	cfg.LLMURL = getEnv("COACH_LLM_URL", "http://localhost:4000/v1/coach/stream")
	cfg.LLMAPIKey = getEnv("COACH_LLM_API_KEY", "")
	cfg.LLMTimeout = time.Duration(getEnvInt("COACH_LLM_TIMEOUT_MS", 120000)) * time.Millisecond
	cfg.Mode = strings.ToUpper(getEnv("COACH_MODE", ""))
	cfg.Model = getEnv("COACH_MODEL", cfg.Model)
	cfg.Temperature = getEnvFloat("COACH_TEMPERATURE", cfg.Temperature)
	cfg.TopP = getEnvFloat("COACH_TOP_P", cfg.TopP)
	cfg.MaxTokens = getEnvInt("COACH_MAX_TOKENS", cfg.MaxTokens)
	cfg.DetailLevel = getEnv("COACH_DETAIL_LEVEL", cfg.DetailLevel)
	cfg.WSPingInterval = time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond
	cfg.WSWriteTimeout = time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond
	cfg.WSReadTimeout = time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond
	cfg.WSMaxMessageSize = int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536))
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Model != nil {
		c.Model = *fc.Model
	}
	if fc.Temperature != nil {
		c.Temperature = *fc.Temperature
	}
	if fc.TopP != nil {
		c.TopP = *fc.TopP
	}
	if fc.MaxTokens != nil {
		c.MaxTokens = *fc.MaxTokens
	}
	if fc.DetailLevel != nil {
		c.DetailLevel = *fc.DetailLevel
	}
	if len(fc.Fallbacks) > 0 {
		c.Fallbacks = make(map[domain.SessionType]string, len(fc.Fallbacks))
		for k, v := range fc.Fallbacks {
			t, err := domain.ParseSessionType(k)
			if err != nil {
				return fmt.Errorf("config file %s: fallbacks: %w", path, err)
			}
			c.Fallbacks[t] = v
		}
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if !c.MockMode() {
		if c.LLMURL == "" {
			errs = append(errs, errors.New("COACH_LLM_URL is required"))
		}
		if c.Model == "" {
			errs = append(errs, errors.New("COACH_MODEL is required"))
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature))
	}
	if c.TopP <= 0 || c.TopP > 1 {
		errs = append(errs, fmt.Errorf("top_p must be within (0, 1], got %g", c.TopP))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	return errors.Join(errs...)
}

// MockMode reports whether the mock streamer is selected.
func (c *Config) MockMode() bool {
	return c.Mode == llm.ModeMock
}

// LLMParams returns the sampling parameters for the streaming client.
func (c *Config) LLMParams() llm.Params {
	return llm.Params{
		Model:       c.Model,
		Temperature: c.Temperature,
		TopP:        c.TopP,
		MaxTokens:   c.MaxTokens,
		DetailLevel: c.DetailLevel,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
