package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Narrator synthesizes speech for a text and returns the base64-encoded
// payload.
type Narrator interface {
	Narrate(ctx context.Context, text string) (string, error)
}

// AudioStage resolves a narration reference for a lesson. Failure of every
// source leaves the reference empty; the lesson is still usable without it.
type AudioStage struct {
	narrator Narrator

	elevenKey   string
	elevenVoice string
	elevenModel string
	elevenBase  string

	client *http.Client
	logger *slog.Logger
}

// AudioStageOptions configures NewAudioStage. Narrator may be nil and the
// ElevenLabs key may be empty; with neither available the stage is a no-op.
type AudioStageOptions struct {
	Narrator        Narrator
	ElevenLabsKey   string
	ElevenLabsVoice string
	ElevenLabsModel string

	// ElevenLabsBase overrides the API origin. Empty means production.
	ElevenLabsBase string

	Client *http.Client
}

// NewAudioStage creates the narration stage.
func NewAudioStage(opts AudioStageOptions, logger *slog.Logger) *AudioStage {
	if logger == nil {
		logger = slog.Default()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	base := opts.ElevenLabsBase
	if base == "" {
		base = "https://api.elevenlabs.io"
	}
	return &AudioStage{
		narrator:    opts.Narrator,
		elevenKey:   opts.ElevenLabsKey,
		elevenVoice: opts.ElevenLabsVoice,
		elevenModel: opts.ElevenLabsModel,
		elevenBase:  base,
		client:      client,
		logger:      logger,
	}
}

// Narrate returns an audio data URI for text, or "" when no source could
// produce one.
func (s *AudioStage) Narrate(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}

	if s.narrator != nil {
		encoded, err := s.narrator.Narrate(ctx, text)
		if err == nil {
			return "data:audio/pcm;base64," + encoded
		}
		s.logger.Warn("narration failed, trying elevenlabs", "error", err)
	}

	if s.elevenKey == "" {
		return ""
	}
	ref, err := s.narrateElevenLabs(ctx, text)
	if err != nil {
		s.logger.Warn("elevenlabs narration failed, lesson stays silent", "error", err)
		return ""
	}
	return ref
}

// narrateElevenLabs calls the ElevenLabs text-to-speech endpoint and
// returns the MP3 payload as a data URI.
func (s *AudioStage) narrateElevenLabs(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"text":     text,
		"model_id": s.elevenModel,
	})
	if err != nil {
		return "", err
	}

	endpoint := s.elevenBase + "/v1/text-to-speech/" + s.elevenVoice
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.elevenKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("elevenlabs returned %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
