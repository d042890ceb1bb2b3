package config_test

import (
	"testing"
	"time"

	"github.com/voidlabs/narrator/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":8000")
	}
	if cfg.Model != "xiaomi/mimo-v2-flash" {
		t.Errorf("Model = %q, want default model", cfg.Model)
	}
	if cfg.Voice != "af_bella" {
		t.Errorf("Voice = %q, want %q", cfg.Voice, "af_bella")
	}
	if cfg.Speed != 1.0 {
		t.Errorf("Speed = %g, want 1.0", cfg.Speed)
	}
	if cfg.MaxTokens != 500 {
		t.Errorf("MaxTokens = %d, want 500", cfg.MaxTokens)
	}
	if cfg.SentencesPerSegment != 2 {
		t.Errorf("SentencesPerSegment = %d, want 2", cfg.SentencesPerSegment)
	}
	if cfg.SyncInterval != 50*time.Millisecond {
		t.Errorf("SyncInterval = %v, want 50ms", cfg.SyncInterval)
	}
	if cfg.ErrorClearDelay != 4*time.Second {
		t.Errorf("ErrorClearDelay = %v, want 4s", cfg.ErrorClearDelay)
	}
	if cfg.TTSConfigured() {
		t.Error("TTSConfigured() = true with no HF_API_KEY")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("NARRATOR_LISTEN_ADDR", ":9090")
	t.Setenv("HF_API_KEY", "hf_test")
	t.Setenv("NARRATOR_SPEED", "1.5")
	t.Setenv("NARRATOR_SENTENCES_PER_SEGMENT", "3")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9090")
	}
	if !cfg.TTSConfigured() {
		t.Error("TTSConfigured() = false with HF_API_KEY set")
	}
	if cfg.Speed != 1.5 {
		t.Errorf("Speed = %g, want 1.5", cfg.Speed)
	}
	if cfg.SentencesPerSegment != 3 {
		t.Errorf("SentencesPerSegment = %d, want 3", cfg.SentencesPerSegment)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"defaults pass", func(c *config.Config) {}, false},
		{"speed too low", func(c *config.Config) { c.Speed = 0.05 }, true},
		{"speed too high", func(c *config.Config) { c.Speed = 5.0 }, true},
		{"zero batch size", func(c *config.Config) { c.SentencesPerSegment = 0 }, true},
		{"zero max tokens", func(c *config.Config) { c.MaxTokens = 0 }, true},
		{"zero sync interval", func(c *config.Config) { c.SyncInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v", err)
			}
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
