package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// ErrVideoUnavailable indicates the video gateway is not configured.
var ErrVideoUnavailable = errors.New("video generation not configured")

// videoURLKeys are probed in order on the gateway response; the payload
// shape varies between gateway versions.
var videoURLKeys = []string{"video_url", "url", "output.url", "video"}

// VideoStage animates a base image into a short clip through the external
// image-to-video gateway. Unlike the other stages it reports its failure,
// which is recorded on the artifact so the caller can show what went wrong.
type VideoStage struct {
	apiURL string
	apiKey string

	client *http.Client
	logger *slog.Logger
}

// VideoStageOptions configures NewVideoStage.
type VideoStageOptions struct {
	APIURL string
	APIKey string
	Client *http.Client
}

// NewVideoStage creates the video stage.
func NewVideoStage(opts VideoStageOptions, logger *slog.Logger) *VideoStage {
	if logger == nil {
		logger = slog.Default()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &VideoStage{
		apiURL: opts.APIURL,
		apiKey: opts.APIKey,
		client: client,
		logger: logger,
	}
}

// Configured reports whether the gateway credential is present.
func (s *VideoStage) Configured() bool { return s.apiKey != "" && s.apiURL != "" }

// Generate submits prompt and the base64 image payload to the gateway and
// returns the resulting clip URL. format selects the container.
func (s *VideoStage) Generate(ctx context.Context, prompt, imageBase64, format string) (string, error) {
	if !s.Configured() {
		return "", ErrVideoUnavailable
	}

	payload, err := json.Marshal(map[string]string{
		"prompt":       prompt,
		"image":        imageBase64,
		"aspect_ratio": "16:9",
		"format":       format,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling video gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("video gateway returned %s: %s", resp.Status, errorDetail(body))
	}

	for _, key := range videoURLKeys {
		if v := gjson.GetBytes(body, key); v.Exists() && v.String() != "" {
			return v.String(), nil
		}
	}
	return "", errors.New("video gateway response carries no clip URL")
}

// errorDetail extracts a human-readable message from an error body. JSON
// bodies usually carry one of a few conventional keys; short non-JSON
// bodies are used as-is.
func errorDetail(body []byte) string {
	for _, key := range []string{"detail", "message", "error"} {
		if v := gjson.GetBytes(body, key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	if len(body) > 0 && len(body) < 100 {
		return string(body)
	}
	return "no detail"
}
