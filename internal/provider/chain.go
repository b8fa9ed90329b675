package provider

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/mythosai/mythos/internal/config"
	"github.com/mythosai/mythos/internal/lesson"
)

// Chain tries each configured backend in order and returns the first
// success. All backend failures are logged and absorbed; callers only ever
// see a usable result.
type Chain struct {
	generators []Generator
	offline    Offline

	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

// NewChain builds the fallback chain from cfg. Backends without a
// configured credential are simply not constructed; an empty chain is valid
// and serves the offline placeholder exclusively.
func NewChain(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Chain, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var generators []Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGemini(ctx, GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			TextModel:  cfg.TextModel,
			ImageModel: cfg.ImageModel,
			TTSModel:   cfg.TTSModel,
			TTSVoice:   cfg.TTSVoice,
		}, logger)
		if err != nil {
			return nil, err
		}
		generators = append(generators, gemini)
	}
	if cfg.OpenAIAPIKey != "" {
		generators = append(generators, NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger))
	}

	limit := rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	return &Chain{
		generators: generators,
		limiter:    rate.NewLimiter(limit, 1),
		timeout:    cfg.ProviderTimeout,
		logger:     logger,
	}, nil
}

// NewChainWith builds a chain over explicit generators. Used by tests and
// by callers that construct backends themselves.
func NewChainWith(generators []Generator, timeout time.Duration, rpm int, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	if rpm <= 0 {
		rpm = 1
	}
	return &Chain{
		generators: generators,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		timeout:    timeout,
		logger:     logger,
	}
}

// Configured reports whether at least one backend credential was present.
func (c *Chain) Configured() bool { return len(c.generators) > 0 }

// Gemini returns the Gemini backend if it is part of the chain. The
// pipeline uses it directly for image and narration generation.
func (c *Chain) Gemini() (*Gemini, bool) {
	for _, g := range c.generators {
		if gem, ok := g.(*Gemini); ok {
			return gem, true
		}
	}
	return nil, false
}

// GenerateText asks each backend in order for a structured lesson text.
// With no backend configured, or after every backend has failed, it returns
// the offline placeholder. The error return is reserved for local failures
// such as a cancelled context; backend errors never propagate.
func (c *Chain) GenerateText(ctx context.Context, p Prompt) (*TextResult, error) {
	if len(c.generators) == 0 {
		c.logger.Info("no provider configured, serving offline placeholder")
		return c.offline.Placeholder(p.Topic), nil
	}

	for _, g := range c.generators {
		result, err := c.attemptText(ctx, g, p)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("text generation failed, advancing chain",
			"provider", g.Name(), "error", err)
	}

	c.logger.Warn("all providers failed, serving offline placeholder")
	return c.offline.Placeholder(p.Topic), nil
}

// GenerateQuiz asks each backend in order for quiz questions. Exhaustion
// yields an empty quiz rather than an error; there is no offline quiz.
func (c *Chain) GenerateQuiz(ctx context.Context, p Prompt) ([]lesson.QuizQuestion, error) {
	for _, g := range c.generators {
		questions, err := c.attemptQuiz(ctx, g, p)
		if err == nil {
			return questions, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("quiz generation failed, advancing chain",
			"provider", g.Name(), "error", err)
	}
	return nil, nil
}

func (c *Chain) attemptText(ctx context.Context, g Generator, p Prompt) (*TextResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return g.GenerateText(attemptCtx, p)
}

func (c *Chain) attemptQuiz(ctx context.Context, g Generator, p Prompt) ([]lesson.QuizQuestion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return g.GenerateQuiz(attemptCtx, p)
}
