package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENROUTER_API_KEY", "OPENROUTER_API_KEY_FILE", "MODEL", "PROVIDERS",
		"ENABLE_FILE_LOGGING", "CAPTURE_HOTKEY", "CANCEL_HOTKEY",
		"MIN_CONFIDENCE", "SEARCH_ENGINE", "IMAGE_SEARCH_ENDPOINT",
		"OCR_DEADLINE_SEC", "CIRCLE_SEARCH_ENV",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CaptureHotkey != DefaultCaptureHotkey {
		t.Errorf("CaptureHotkey = %q, want %q", cfg.CaptureHotkey, DefaultCaptureHotkey)
	}
	if cfg.CancelHotkey != DefaultCancelHotkey {
		t.Errorf("CancelHotkey = %q, want %q", cfg.CancelHotkey, DefaultCancelHotkey)
	}
	if cfg.MinConfidence != DefaultMinConfidence {
		t.Errorf("MinConfidence = %v, want %v", cfg.MinConfidence, DefaultMinConfidence)
	}
	if cfg.SearchEngine != "google" {
		t.Errorf("SearchEngine = %q, want google", cfg.SearchEngine)
	}
	if cfg.OCRDeadlineSec != DefaultOCRDeadline {
		t.Errorf("OCRDeadlineSec = %d, want %d", cfg.OCRDeadlineSec, DefaultOCRDeadline)
	}
}

func TestLoadEnvironmentValues(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CAPTURE_HOTKEY", "Ctrl+Alt+S")
	t.Setenv("MIN_CONFIDENCE", "0.5")
	t.Setenv("SEARCH_ENGINE", "bing")
	t.Setenv("PROVIDERS", "DeepInfra, Parasail , ")
	t.Setenv("OCR_DEADLINE_SEC", "45")
	t.Setenv("IMAGE_SEARCH_ENDPOINT", "https://example.com/upload")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CaptureHotkey != "Ctrl+Alt+S" {
		t.Errorf("CaptureHotkey = %q", cfg.CaptureHotkey)
	}
	if cfg.MinConfidence != 0.5 {
		t.Errorf("MinConfidence = %v, want 0.5", cfg.MinConfidence)
	}
	if cfg.SearchEngine != "bing" {
		t.Errorf("SearchEngine = %q, want bing", cfg.SearchEngine)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[0] != "DeepInfra" || cfg.Providers[1] != "Parasail" {
		t.Errorf("Providers = %v", cfg.Providers)
	}
	if cfg.OCRDeadlineSec != 45 {
		t.Errorf("OCRDeadlineSec = %d, want 45", cfg.OCRDeadlineSec)
	}
	if cfg.ImageSearchEndpoint != "https://example.com/upload" {
		t.Errorf("ImageSearchEndpoint = %q", cfg.ImageSearchEndpoint)
	}
}

func TestLoadOverridesBeatEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CAPTURE_HOTKEY", "Ctrl+Alt+S")
	t.Setenv("SEARCH_ENGINE", "bing")
	t.Setenv("MIN_CONFIDENCE", "0.5")

	cfg, err := LoadWithOptions(LoadOptions{
		CaptureHotkeyOverride: "Ctrl+Shift+X",
		SearchEngineOverride:  "google",
		MinConfidenceOverride: 0.7,
	})
	if err != nil {
		t.Fatalf("LoadWithOptions failed: %v", err)
	}
	if cfg.CaptureHotkey != "Ctrl+Shift+X" {
		t.Errorf("CaptureHotkey = %q", cfg.CaptureHotkey)
	}
	if cfg.SearchEngine != "google" {
		t.Errorf("SearchEngine = %q", cfg.SearchEngine)
	}
	if cfg.MinConfidence != 0.7 {
		t.Errorf("MinConfidence = %v", cfg.MinConfidence)
	}
}

func TestMinConfidenceIsClamped(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadWithOptions(LoadOptions{MinConfidenceOverride: 3.0})
	if err != nil {
		t.Fatalf("LoadWithOptions failed: %v", err)
	}
	if cfg.MinConfidence != 1.0 {
		t.Errorf("MinConfidence = %v, want clamped to 1.0", cfg.MinConfidence)
	}
}

func TestInvalidSearchEngineFallsBack(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SEARCH_ENGINE", "altavista")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SearchEngine != "google" {
		t.Errorf("SearchEngine = %q, want google fallback", cfg.SearchEngine)
	}
}

func TestAPIKeyFromFile(t *testing.T) {
	clearConfigEnv(t)

	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("  file-key\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: keyFile})
	if err != nil {
		t.Fatalf("LoadWithOptions failed: %v", err)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want the trimmed file content", cfg.APIKey)
	}
	if cfg.APIKeyPath != keyFile {
		t.Errorf("APIKeyPath = %q, want %q", cfg.APIKeyPath, keyFile)
	}
}

func TestAPIKeyFallsBackToEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: filepath.Join(t.TempDir(), "missing")})
	if err != nil {
		t.Fatalf("LoadWithOptions failed: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want the environment value", cfg.APIKey)
	}
}
