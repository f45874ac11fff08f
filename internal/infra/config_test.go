package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("GEMINI_IMAGE_MODEL", "")
	t.Setenv("GEMINI_TEXT_MODEL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.GeminiImageModel != "gemini-2.5-flash-image-preview" {
		t.Fatalf("GeminiImageModel mismatch: got %q", cfg.GeminiImageModel)
	}
	if cfg.GeminiTextModel != "gemini-2.5-flash" {
		t.Fatalf("GeminiTextModel mismatch: got %q", cfg.GeminiTextModel)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.HTTPWriteTimeout != 300*time.Second {
		t.Fatalf("HTTPWriteTimeout mismatch: %v", cfg.HTTPWriteTimeout)
	}
}

func TestLoadConfigParsesOriginList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, http://localhost:3000 ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://app.example.com", "http://localhost:3000"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}

func TestLoadConfigHonorsModelOverrides(t *testing.T) {
	t.Setenv("GEMINI_IMAGE_MODEL", "gemini-3-image")
	t.Setenv("GEMINI_TEXT_MODEL", "gemini-3-text")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.GeminiImageModel != "gemini-3-image" || cfg.GeminiTextModel != "gemini-3-text" {
		t.Fatalf("model overrides not applied: %q / %q", cfg.GeminiImageModel, cfg.GeminiTextModel)
	}
}
