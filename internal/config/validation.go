package config

import (
	"fmt"
	"net/url"
)

// Validate checks all configuration values, fail-fast.
func (c *Config) Validate() error {
	if c.HistoryLimit < 1 || c.HistoryLimit > 100 {
		return fmt.Errorf("%w: %d (must be 1-100)", ErrInvalidHistoryLimit, c.HistoryLimit)
	}
	if c.AudioInlineLimit < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidAudioInlineLimit, c.AudioInlineLimit)
	}
	if c.StorageQuotaBytes < 1024 {
		return fmt.Errorf("%w: %d (must be >= 1024)", ErrInvalidStorageQuota, c.StorageQuotaBytes)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeout, c.ProviderTimeout)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRateLimit, c.RequestsPerMinute)
	}

	if c.TextModel == "" {
		return fmt.Errorf("%w: text_model is empty", ErrInvalidModelName)
	}
	if c.ImageModel == "" {
		return fmt.Errorf("%w: image_model is empty", ErrInvalidModelName)
	}
	if c.TTSModel == "" {
		return fmt.Errorf("%w: tts_model is empty", ErrInvalidModelName)
	}
	if c.OpenAIModel == "" {
		return fmt.Errorf("%w: openai_model is empty", ErrInvalidModelName)
	}

	for name, raw := range map[string]string{
		"video_api_url":      c.VideoAPIURL,
		"image_fallback_url": c.ImageFallbackURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEndpoint, name, raw)
		}
	}

	return nil
}
