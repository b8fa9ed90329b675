package config

// Storage defaults.
const (
	// DefaultHistoryLimit is the number of lessons retained in the store.
	// Eviction is pure recency-based over insertion order.
	DefaultHistoryLimit = 5

	// DefaultAudioInlineLimit is the encoded-audio length above which the
	// audio reference is dropped when a save is retried in lightened form.
	DefaultAudioInlineLimit = 1000

	// DefaultStorageQuotaBytes bounds a single persisted value.
	DefaultStorageQuotaBytes = 5 << 20
)

// HasGemini reports whether a Gemini credential is configured.
func (c *Config) HasGemini() bool { return c.GeminiAPIKey != "" }

// HasOpenAI reports whether an OpenAI credential is configured.
func (c *Config) HasOpenAI() bool { return c.OpenAIAPIKey != "" }

// HasTextProvider reports whether any text provider credential exists.
// When false the fallback chain must short-circuit to the offline
// placeholder before attempting any network call.
func (c *Config) HasTextProvider() bool { return c.HasGemini() || c.HasOpenAI() }
