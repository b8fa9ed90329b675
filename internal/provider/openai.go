package provider

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mythosai/mythos/internal/lesson"
)

// OpenAI is the secondary backend. It receives the same semantic prompt as
// Gemini and is expected to return raw text that parses as the same JSON
// shape.
type OpenAI struct {
	model  string
	opts   []option.RequestOption
	logger *slog.Logger
}

// NewOpenAI creates the OpenAI backend.
func NewOpenAI(apiKey, model string, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		model:  model,
		opts:   []option.RequestOption{option.WithAPIKey(apiKey)},
		logger: logger,
	}
}

// Name implements Generator.
func (o *OpenAI) Name() string { return "openai" }

// complete runs one chat completion and returns the raw text.
func (o *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	client := openai.NewClient(o.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

const jsonOnlySystem = "Réponds uniquement avec un objet JSON valide, sans texte autour et sans bloc de code."

// GenerateText implements Generator.
func (o *OpenAI) GenerateText(ctx context.Context, p Prompt) (*TextResult, error) {
	raw, err := o.complete(ctx, jsonOnlySystem, p.Text)
	if err != nil {
		return nil, err
	}
	return parseTextResult(raw, p.FollowUp)
}

// GenerateQuiz implements Generator.
func (o *OpenAI) GenerateQuiz(ctx context.Context, p Prompt) ([]lesson.QuizQuestion, error) {
	raw, err := o.complete(ctx, "Réponds uniquement avec un tableau JSON valide, sans texte autour.", p.Text)
	if err != nil {
		return nil, err
	}
	return parseQuiz(raw)
}
