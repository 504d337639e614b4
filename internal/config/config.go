package config

import (
	"os"
	"strconv"
	"time"

	"lpcore/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Storage StorageConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// LLMConfig holds generative-model settings. The analysis and SVG steps may
// use different models, mirroring the text-then-infographic flow.
type LLMConfig struct {
	APIKey        string
	BaseURL       string
	AnalysisModel string
	SVGModel      string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
}

// StorageConfig holds upload and temp-file settings
type StorageConfig struct {
	TempDir        string
	MaxUploadBytes int64
	SessionTTL     time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		LLM: LLMConfig{
			APIKey:        os.Getenv("LLM_API_KEY"),
			BaseURL:       getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			AnalysisModel: getEnvOrDefault("ANALYSIS_MODEL", "gpt-4o-mini"),
			SVGModel:      getEnvOrDefault("SVG_MODEL", "gpt-4o"),
			MaxTokens:     getEnvIntOrDefault("MAX_TOKENS", 4000),
			Temperature:   getEnvFloatOrDefault("TEMPERATURE", 0.1),
			Timeout:       getEnvDurationOrDefault("LLM_TIMEOUT", 120*time.Second),
		},
		Storage: StorageConfig{
			TempDir:        getEnvOrDefault("TEMP_DIR", os.TempDir()),
			MaxUploadBytes: getEnvInt64OrDefault("MAX_UPLOAD_BYTES", 10*1024*1024),
			SessionTTL:     getEnvDurationOrDefault("SESSION_TTL", time.Hour),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Storage.TempDir == "" {
		return errors.ConfigInvalid("temp directory is required")
	}
	// LLM_API_KEY is deliberately not required here: the analysis pipeline
	// works without it, and the planner reports a configuration error at
	// call time instead.
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
