// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest priority):
//  1. Environment variables (secrets are env-only)
//  2. Config file (~/.mythos/config.yaml)
//  3. Default values
//
// Categories:
//   - Providers: API keys, model names and endpoints
//   - Storage: data directory, quota and retention (see storage.go)
//   - Server: listen address
//
// The loaded Config is passed to components at construction time. Credential
// rotation means rebuilding the pipeline from a freshly loaded Config; there
// are no ambient per-call key lookups.
//
// Security: API keys are masked in MarshalJSON and String.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidHistoryLimit indicates the history retention count is out of range.
	ErrInvalidHistoryLimit = errors.New("invalid history limit")

	// ErrInvalidAudioInlineLimit indicates the inline-audio cutoff is out of range.
	ErrInvalidAudioInlineLimit = errors.New("invalid audio inline limit")

	// ErrInvalidStorageQuota indicates the storage quota is out of range.
	ErrInvalidStorageQuota = errors.New("invalid storage quota")

	// ErrInvalidTimeout indicates a non-positive provider timeout.
	ErrInvalidTimeout = errors.New("invalid provider timeout")

	// ErrInvalidRateLimit indicates a non-positive requests-per-minute value.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidEndpoint indicates a provider endpoint URL is malformed.
	ErrInvalidEndpoint = errors.New("invalid provider endpoint")

	// ErrInvalidModelName indicates an empty model identifier.
	ErrInvalidModelName = errors.New("invalid model name")
)

// Config stores the application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; update it when
// adding new secret fields.
type Config struct {
	// Provider credentials. All optional: with no key configured at all the
	// chain short-circuits to the offline placeholder without any network
	// call.
	GeminiAPIKey     string `mapstructure:"gemini_api_key" json:"gemini_api_key"`         // SENSITIVE
	OpenAIAPIKey     string `mapstructure:"openai_api_key" json:"openai_api_key"`         // SENSITIVE
	ElevenLabsAPIKey string `mapstructure:"elevenlabs_api_key" json:"elevenlabs_api_key"` // SENSITIVE
	VideoAPIKey      string `mapstructure:"video_api_key" json:"video_api_key"`           // SENSITIVE

	// Model selection.
	TextModel   string `mapstructure:"text_model" json:"text_model"`
	ImageModel  string `mapstructure:"image_model" json:"image_model"`
	TTSModel    string `mapstructure:"tts_model" json:"tts_model"`
	TTSVoice    string `mapstructure:"tts_voice" json:"tts_voice"`
	OpenAIModel string `mapstructure:"openai_model" json:"openai_model"`

	// ElevenLabs narration fallback.
	ElevenLabsVoiceID string `mapstructure:"elevenlabs_voice_id" json:"elevenlabs_voice_id"`
	ElevenLabsModel   string `mapstructure:"elevenlabs_model" json:"elevenlabs_model"`

	// External endpoints.
	VideoAPIURL      string `mapstructure:"video_api_url" json:"video_api_url"`
	ImageFallbackURL string `mapstructure:"image_fallback_url" json:"image_fallback_url"`

	// Image fallback parameters (URL-based provider query string).
	ImageFallbackModel string `mapstructure:"image_fallback_model" json:"image_fallback_model"`
	ImageWidth         int    `mapstructure:"image_width" json:"image_width"`
	ImageHeight        int    `mapstructure:"image_height" json:"image_height"`
	ImageSeed          int    `mapstructure:"image_seed" json:"image_seed"`

	// Call discipline.
	ProviderTimeout   time.Duration `mapstructure:"provider_timeout" json:"provider_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" json:"requests_per_minute"`

	// Storage (see storage.go).
	DataDir           string `mapstructure:"data_dir" json:"data_dir"`
	HistoryLimit      int    `mapstructure:"history_limit" json:"history_limit"`
	AudioInlineLimit  int    `mapstructure:"audio_inline_limit" json:"audio_inline_limit"`
	StorageQuotaBytes int64  `mapstructure:"storage_quota_bytes" json:"storage_quota_bytes"`

	// Server.
	Addr string `mapstructure:"addr" json:"addr"`

	// DefaultLanguage is used when a request does not specify one.
	DefaultLanguage string `mapstructure:"default_language" json:"default_language"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".mythos")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	// Model defaults mirror the provider SDK defaults the pipeline targets.
	v.SetDefault("text_model", "gemini-2.5-flash")
	v.SetDefault("image_model", "gemini-3-pro-image-preview")
	v.SetDefault("tts_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("tts_voice", "Kore")
	v.SetDefault("openai_model", "gpt-4o-mini")

	v.SetDefault("elevenlabs_voice_id", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("elevenlabs_model", "eleven_multilingual_v2")

	v.SetDefault("video_api_url", "https://gateway.pixazo.ai/sora-video/v1/video/i2v/generate")
	v.SetDefault("image_fallback_url", "https://image.pollinations.ai")
	v.SetDefault("image_fallback_model", "flux")
	v.SetDefault("image_width", 1280)
	v.SetDefault("image_height", 720)
	v.SetDefault("image_seed", 42)

	v.SetDefault("provider_timeout", 90*time.Second)
	v.SetDefault("requests_per_minute", 30)

	v.SetDefault("data_dir", configDir)
	v.SetDefault("history_limit", DefaultHistoryLimit)
	v.SetDefault("audio_inline_limit", DefaultAudioInlineLimit)
	v.SetDefault("storage_quota_bytes", DefaultStorageQuotaBytes)

	v.SetDefault("addr", "127.0.0.1:8780")
	v.SetDefault("default_language", "Français")
}

// bindEnvVariables binds environment variables. Secrets are env-only and
// never written to the config file.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("gemini_api_key", "GEMINI_API_KEY")
	mustBind("openai_api_key", "OPENAI_API_KEY")
	mustBind("elevenlabs_api_key", "ELEVENLABS_API_KEY")
	mustBind("video_api_key", "MYTHOS_VIDEO_API_KEY")

	mustBind("video_api_url", "MYTHOS_VIDEO_API_URL")
	mustBind("addr", "MYTHOS_ADDR")
	mustBind("data_dir", "MYTHOS_DATA_DIR")
	mustBind("text_model", "MYTHOS_TEXT_MODEL")
	mustBind("openai_model", "MYTHOS_OPENAI_MODEL")
}

// maskedValue replaces secret material in logs. Full-width blocks avoid
// accidental substring matches against real key fragments.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are fully
// masked; longer ones keep the first and last two characters for debugging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with secret masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.GeminiAPIKey = maskSecret(a.GeminiAPIKey)
	a.OpenAIAPIKey = maskSecret(a.OpenAIAPIKey)
	a.ElevenLabsAPIKey = maskSecret(a.ElevenLabsAPIKey)
	a.VideoAPIKey = maskSecret(a.VideoAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
