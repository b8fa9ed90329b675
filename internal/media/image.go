// Package media implements the best-effort illustration, narration and
// video stages that enrich a generated lesson.
//
// Each stage degrades independently: image failure falls back to a URL-based
// provider and finally to a fixed external URL, narration failure leaves the
// audio reference absent, and video failure is recorded on the artifact
// without affecting the other stages.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ImageGenerator produces an inline illustration for a prompt, returned as
// a data URI.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ImageStage resolves an illustration reference for a lesson. It never
// returns an error: every failure falls through to the next source, ending
// at a fixed external URL that requires no generation at all.
type ImageStage struct {
	generator ImageGenerator

	fallbackURL   string
	fallbackModel string
	width, height int
	seed          int

	client *http.Client
	logger *slog.Logger
}

// ImageStageOptions configures NewImageStage. Generator may be nil, in
// which case the stage starts at the URL-based fallback.
type ImageStageOptions struct {
	Generator     ImageGenerator
	FallbackURL   string
	FallbackModel string
	Width, Height int
	Seed          int
	Client        *http.Client
}

// NewImageStage creates the illustration stage.
func NewImageStage(opts ImageStageOptions, logger *slog.Logger) *ImageStage {
	if logger == nil {
		logger = slog.Default()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &ImageStage{
		generator:     opts.Generator,
		fallbackURL:   opts.FallbackURL,
		fallbackModel: opts.FallbackModel,
		width:         opts.Width,
		height:        opts.Height,
		seed:          opts.Seed,
		client:        client,
		logger:        logger,
	}
}

// Generate returns an image reference for prompt: an inline data URI when a
// generator succeeds, otherwise the fallback URL itself. The style is
// appended to the prompt by the caller.
func (s *ImageStage) Generate(ctx context.Context, prompt string) string {
	if s.generator != nil {
		ref, err := s.generator.GenerateImage(ctx, prompt)
		if err == nil {
			return ref
		}
		s.logger.Warn("inline image generation failed, using fallback provider", "error", err)
	}

	ref, err := s.fetchFallback(ctx, prompt)
	if err == nil {
		return ref
	}
	s.logger.Warn("fallback image fetch failed, using plain URL", "error", err)
	return s.FallbackRef(prompt)
}

// FallbackRef builds the external image URL for prompt without fetching it.
// The offline placeholder and the last-resort path both use this form.
func (s *ImageStage) FallbackRef(prompt string) string {
	return fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&model=%s&seed=%d",
		s.fallbackURL, url.PathEscape(prompt), s.width, s.height, s.fallbackModel, s.seed)
}

// fetchFallback downloads the fallback provider's image and inlines it as a
// data URI, so the video stage can use it as a base frame.
func (s *ImageStage) fetchFallback(ctx context.Context, prompt string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.FallbackRef(prompt), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fallback image provider returned %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
