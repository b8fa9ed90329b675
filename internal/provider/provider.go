// Package provider implements the ordered fallback chain over the
// content-generation backends.
//
// Each backend is a variant implementing Generator; the Chain iterates the
// configured variants in order and short-circuits on the first success.
// Adding or removing a backend never touches call sites.
//
// Degrade policy: when at least one credential is configured but every
// backend fails, for any reason, the chain returns the deterministic
// offline placeholder instead of the raw provider error. Only local
// validation errors propagate to callers. With no credential configured at
// all, the placeholder is returned before any network call is attempted.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mythosai/mythos/internal/lesson"
)

// ErrMalformedResponse indicates a backend returned output that does not
// satisfy the structured-text contract. It is treated as that backend's
// failure, never surfaced to callers of the chain.
var ErrMalformedResponse = errors.New("malformed provider response")

// Prompt is the assembled instruction payload handed to a backend.
type Prompt struct {
	// Text is the full instruction text, including the conversation
	// context for follow-up turns.
	Text string

	// Topic is the requested subject; the offline placeholder references it.
	Topic string

	// FollowUp switches the required response keys: top-level flows require
	// imagePrompt, follow-up flows require nextStepSuggestion.
	FollowUp bool
}

// TextResult is the structured outcome of text generation.
type TextResult struct {
	Title       string
	Content     string
	ImagePrompt string
	NextStep    string

	// ImageRef is only set by the offline placeholder, which carries a
	// fixed external image URL instead of going through the image stage.
	ImageRef string

	// Offline marks the result as the deterministic placeholder; the
	// pipeline skips all media stages for it.
	Offline bool
}

// Generator is one content-generation backend.
type Generator interface {
	// Name identifies the backend in logs.
	Name() string

	// GenerateText produces a structured lesson text for the prompt.
	GenerateText(ctx context.Context, p Prompt) (*TextResult, error)

	// GenerateQuiz produces multiple-choice questions for the prompt.
	GenerateQuiz(ctx context.Context, p Prompt) ([]lesson.QuizQuestion, error)
}

// textPayload mirrors the JSON shape backends are instructed to return.
type textPayload struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`
	NextStep    string `json:"nextStepSuggestion"`
}

// parseTextResult validates raw backend output against the structured-text
// contract. Model output is frequently wrapped in markdown code fences;
// those are stripped before decoding. A decode failure falls back to a
// loose key probe so that harmless trailing junk does not fail an otherwise
// usable response.
func parseTextResult(raw string, followUp bool) (*TextResult, error) {
	cleaned := stripCodeFence(raw)

	var payload textPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		if !gjson.Valid(cleaned) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		payload.Title = gjson.Get(cleaned, "title").String()
		payload.Content = gjson.Get(cleaned, "content").String()
		payload.ImagePrompt = gjson.Get(cleaned, "imagePrompt").String()
		payload.NextStep = gjson.Get(cleaned, "nextStepSuggestion").String()
	}

	if payload.Title == "" || payload.Content == "" {
		return nil, fmt.Errorf("%w: missing title or content", ErrMalformedResponse)
	}
	if !followUp && payload.ImagePrompt == "" {
		return nil, fmt.Errorf("%w: missing imagePrompt", ErrMalformedResponse)
	}
	if followUp && payload.NextStep == "" {
		return nil, fmt.Errorf("%w: missing nextStepSuggestion", ErrMalformedResponse)
	}

	return &TextResult{
		Title:       payload.Title,
		Content:     payload.Content,
		ImagePrompt: payload.ImagePrompt,
		NextStep:    payload.NextStep,
	}, nil
}

// quizOptionCount is the number of choices every quiz question carries.
const quizOptionCount = 3

// parseQuiz validates raw backend output as a quiz question list. Every
// question must be complete and carry exactly quizOptionCount options.
func parseQuiz(raw string) ([]lesson.QuizQuestion, error) {
	cleaned := stripCodeFence(raw)

	var questions []lesson.QuizQuestion
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		// Some backends wrap the list in an object.
		if arr := gjson.Get(cleaned, "questions"); arr.Exists() && arr.IsArray() {
			if err2 := json.Unmarshal([]byte(arr.Raw), &questions); err2 != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err2)
			}
		} else {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	for _, q := range questions {
		if q.Question == "" || q.CorrectAnswer == "" {
			return nil, fmt.Errorf("%w: incomplete quiz question", ErrMalformedResponse)
		}
		if len(q.Options) != quizOptionCount {
			return nil, fmt.Errorf("%w: quiz question needs %d options, got %d",
				ErrMalformedResponse, quizOptionCount, len(q.Options))
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty quiz", ErrMalformedResponse)
	}
	return questions, nil
}

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
