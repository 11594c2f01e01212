package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"

	DefaultCaptureHotkey = "Ctrl+Shift+Space"
	DefaultCancelHotkey  = "Ctrl+Shift+Escape"
	DefaultMinConfidence = 0.30
	DefaultSearchEngine  = "google"
	DefaultOCRDeadline   = 20
)

// LoadOptions carries CLI overrides; non-empty fields win over the
// environment and .env file.
type LoadOptions struct {
	APIKeyPathOverride    string
	CaptureHotkeyOverride string
	CancelHotkeyOverride  string
	MinConfidenceOverride float64
	SearchEngineOverride  string
}

type Config struct {
	APIKey              string
	APIKeyPath          string
	Model               string
	Providers           []string
	EnableFileLogging   bool
	CaptureHotkey       string
	CancelHotkey        string
	MinConfidence       float64
	SearchEngine        string
	ImageSearchEndpoint string
	OCRDeadlineSec      int
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use CIRCLE_SEARCH_ENV env var as a path to a config file
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// Parse providers from comma-separated string
	var providers []string
	if providersStr := os.Getenv("PROVIDERS"); providersStr != "" {
		for _, provider := range strings.Split(providersStr, ",") {
			if trimmed := strings.TrimSpace(provider); trimmed != "" {
				providers = append(providers, trimmed)
			}
		}
	}

	ocrDeadlineSec := DefaultOCRDeadline
	if v := os.Getenv("OCR_DEADLINE_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ocrDeadlineSec = n
		}
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		APIKey:              resolveAPIKey(apiKeyPath),
		APIKeyPath:          apiKeyPath,
		Model:               os.Getenv("MODEL"),
		Providers:           providers,
		EnableFileLogging:   strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		CaptureHotkey:       resolveString(opts.CaptureHotkeyOverride, "CAPTURE_HOTKEY", DefaultCaptureHotkey),
		CancelHotkey:        resolveString(opts.CancelHotkeyOverride, "CANCEL_HOTKEY", DefaultCancelHotkey),
		MinConfidence:       resolveMinConfidence(opts),
		SearchEngine:        resolveSearchEngine(opts),
		ImageSearchEndpoint: os.Getenv("IMAGE_SEARCH_ENDPOINT"),
		OCRDeadlineSec:      ocrDeadlineSec,
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv("CIRCLE_SEARCH_ENV"); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func resolveString(override, envVar, defaultValue string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultValue
}

func resolveMinConfidence(opts LoadOptions) float64 {
	if opts.MinConfidenceOverride > 0 {
		return clampConfidence(opts.MinConfidenceOverride)
	}
	if v := os.Getenv("MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return clampConfidence(f)
		}
	}
	return DefaultMinConfidence
}

func clampConfidence(f float64) float64 {
	if f > 1 {
		return 1
	}
	return f
}

func resolveSearchEngine(opts LoadOptions) string {
	value := strings.ToLower(strings.TrimSpace(opts.SearchEngineOverride))
	if value == "" {
		value = strings.ToLower(strings.TrimSpace(os.Getenv("SEARCH_ENGINE")))
	}
	switch value {
	case "bing":
		return "bing"
	case "google", "":
		return DefaultSearchEngine
	default:
		return DefaultSearchEngine
	}
}
