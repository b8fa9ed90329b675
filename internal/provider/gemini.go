package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/mythosai/mythos/internal/lesson"
)

// Gemini is the primary backend. Besides structured text and quizzes it
// also serves the pipeline's image and narration stages through the same
// client.
type Gemini struct {
	client *genai.Client

	textModel  string
	imageModel string
	ttsModel   string
	ttsVoice   string

	logger *slog.Logger
}

// GeminiOptions configures NewGemini.
type GeminiOptions struct {
	APIKey     string
	TextModel  string
	ImageModel string
	TTSModel   string
	TTSVoice   string
}

// NewGemini creates the Gemini backend. The client is built once from the
// configured credential; rotation means rebuilding the chain.
func NewGemini(ctx context.Context, opts GeminiOptions, logger *slog.Logger) (*Gemini, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{
		client:     client,
		textModel:  opts.TextModel,
		imageModel: opts.ImageModel,
		ttsModel:   opts.TTSModel,
		ttsVoice:   opts.TTSVoice,
		logger:     logger,
	}, nil
}

// Name implements Generator.
func (g *Gemini) Name() string { return "gemini" }

// textSchema is the structured-output schema for lesson text. Follow-up
// turns swap the imagePrompt requirement for nextStepSuggestion.
func textSchema(followUp bool) *genai.Schema {
	required := []string{"title", "content", "imagePrompt"}
	if followUp {
		required = []string{"title", "content", "nextStepSuggestion"}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":              {Type: genai.TypeString},
			"content":            {Type: genai.TypeString},
			"imagePrompt":        {Type: genai.TypeString},
			"nextStepSuggestion": {Type: genai.TypeString},
		},
		Required: required,
	}
}

// quizSchema is the structured-output schema for quiz generation.
var quizSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question":      {Type: genai.TypeString},
			"options":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"correctAnswer": {Type: genai.TypeString},
			"explanation":   {Type: genai.TypeString},
		},
		Required: []string{"question", "options", "correctAnswer", "explanation"},
	},
}

// GenerateText implements Generator.
func (g *Gemini) GenerateText(ctx context.Context, p Prompt) (*TextResult, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(p.Text),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   textSchema(p.FollowUp),
		})
	if err != nil {
		return nil, fmt.Errorf("gemini text generation: %w", err)
	}
	return parseTextResult(resp.Text(), p.FollowUp)
}

// GenerateQuiz implements Generator.
func (g *Gemini) GenerateQuiz(ctx context.Context, p Prompt) ([]lesson.QuizQuestion, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(p.Text),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   quizSchema,
		})
	if err != nil {
		return nil, fmt.Errorf("gemini quiz generation: %w", err)
	}
	return parseQuiz(resp.Text())
}

// GenerateImage produces an inline image for prompt and returns it as a
// data URI. Used by the pipeline's image stage.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.imageModel, genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig:        &genai.ImageConfig{AspectRatio: "16:9"},
		})
	if err != nil {
		return "", fmt.Errorf("gemini image generation: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
				return "data:" + part.InlineData.MIMEType + ";base64," + encoded, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no inline image in response", ErrMalformedResponse)
}

// Narrate synthesizes speech for text and returns the base64-encoded PCM
// payload. Used by the pipeline's audio stage.
func (g *Gemini) Narrate(ctx context.Context, text string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.ttsModel, genai.Text(text),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.ttsVoice},
				},
			},
		})
	if err != nil {
		return "", fmt.Errorf("gemini narration: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
			}
		}
	}
	return "", fmt.Errorf("%w: no inline audio in response", ErrMalformedResponse)
}
