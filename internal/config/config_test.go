package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SKIP_AUTH", "true")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("MAX_IMAGE_SIZE_MB", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.SkipAuth {
		t.Errorf("SkipAuth = false, want true")
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", cfg.TokenTTL)
	}
	if cfg.MaxImageSize() != 2<<20 {
		t.Errorf("MaxImageSize() = %d, want %d", cfg.MaxImageSize(), 2<<20)
	}
	if cfg.DBName != "go-social" {
		t.Errorf("DBName = %q, want go-social", cfg.DBName)
	}
}

func TestMaxImageSizeFallback(t *testing.T) {
	cfg := &Config{}
	if got := cfg.MaxImageSize(); got != 5<<20 {
		t.Errorf("MaxImageSize() = %d, want %d", got, 5<<20)
	}
}
