// Package config loads narrator configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the narrator server and client.
type Config struct {
	// Server
	ListenAddr string `env:"NARRATOR_LISTEN_ADDR" envDefault:":8000"`

	// OpenRouter LLM access
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	OpenRouterURL    string `env:"OPENROUTER_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions"`
	Model            string `env:"NARRATOR_MODEL" envDefault:"xiaomi/mimo-v2-flash"`

	// Kokoro TTS via the Hugging Face router. Leaving HFAPIKey empty
	// disables synthesis; narration then degrades to text-only segments.
	HFAPIKey  string  `env:"HF_API_KEY"`
	KokoroURL string  `env:"KOKORO_URL" envDefault:"https://router.huggingface.co/fal-ai/fal-ai/kokoro/american-english"`
	Voice     string  `env:"NARRATOR_VOICE" envDefault:"af_bella"`
	Speed     float64 `env:"NARRATOR_SPEED" envDefault:"1.0"`

	// Request shaping
	MaxTokens           int           `env:"NARRATOR_MAX_TOKENS" envDefault:"500"`
	TTSCacheBytes       int64         `env:"NARRATOR_TTS_CACHE_BYTES" envDefault:"33554432"`
	SentencesPerSegment int           `env:"NARRATOR_SENTENCES_PER_SEGMENT" envDefault:"2"`
	LLMTimeout          time.Duration `env:"NARRATOR_LLM_TIMEOUT" envDefault:"60s"`
	TTSTimeout          time.Duration `env:"NARRATOR_TTS_TIMEOUT" envDefault:"60s"`

	// Client
	ServerURL       string        `env:"NARRATOR_SERVER_URL" envDefault:"http://localhost:8000"`
	RequestTimeout  time.Duration `env:"NARRATOR_REQUEST_TIMEOUT" envDefault:"120s"`
	SyncInterval    time.Duration `env:"NARRATOR_SYNC_INTERVAL" envDefault:"50ms"`
	ErrorClearDelay time.Duration `env:"NARRATOR_ERROR_CLEAR_DELAY" envDefault:"4s"`

	// Logging
	LogLevel string `env:"NARRATOR_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv reads configuration from environment variables only,
// skipping the .env file.
func LoadFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the narrator cannot run with.
func (c Config) Validate() error {
	if c.Speed < 0.1 || c.Speed > 3.0 {
		return fmt.Errorf("speed must be between 0.1 and 3.0, got %g", c.Speed)
	}
	if c.SentencesPerSegment < 1 {
		return fmt.Errorf("sentences per segment must be at least 1, got %d", c.SentencesPerSegment)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.SyncInterval <= 0 {
		return errors.New("sync interval must be positive")
	}
	return nil
}

// TTSConfigured reports whether synthesis credentials are present.
func (c Config) TTSConfigured() bool {
	return c.HFAPIKey != ""
}
