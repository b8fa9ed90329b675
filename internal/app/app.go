// Package app wires the application components together: configuration,
// storage, history, the provider chain, the media stages and the session
// manager. Both the CLI commands and the HTTP server build on the same
// wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mythosai/mythos/internal/config"
	"github.com/mythosai/mythos/internal/history"
	"github.com/mythosai/mythos/internal/media"
	"github.com/mythosai/mythos/internal/pipeline"
	"github.com/mythosai/mythos/internal/provider"
	"github.com/mythosai/mythos/internal/session"
	"github.com/mythosai/mythos/internal/storage"
)

// App holds the wired application components.
type App struct {
	Config   *config.Config
	Store    *storage.Store
	History  *history.Store
	Chain    *provider.Chain
	Pipeline *pipeline.Pipeline
	Sessions *session.Manager

	logger *slog.Logger
}

// Setup builds the full component graph from cfg. The returned App owns the
// storage handle; call Close when done.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.Open(cfg.DataDir, cfg.StorageQuotaBytes, logger)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	hist := history.New(store, cfg.HistoryLimit, cfg.AudioInlineLimit, logger)
	if err := hist.Load(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("loading history: %w", err)
	}

	chain, err := provider.NewChain(ctx, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("building provider chain: %w", err)
	}

	// The Gemini backend doubles as the inline image generator and the
	// primary narrator when its credential is present.
	var imageGen media.ImageGenerator
	var narrator media.Narrator
	if gemini, ok := chain.Gemini(); ok {
		imageGen = gemini
		narrator = gemini
	}

	imageStage := media.NewImageStage(media.ImageStageOptions{
		Generator:     imageGen,
		FallbackURL:   cfg.ImageFallbackURL,
		FallbackModel: cfg.ImageFallbackModel,
		Width:         cfg.ImageWidth,
		Height:        cfg.ImageHeight,
		Seed:          cfg.ImageSeed,
	}, logger)

	audioStage := media.NewAudioStage(media.AudioStageOptions{
		Narrator:        narrator,
		ElevenLabsKey:   cfg.ElevenLabsAPIKey,
		ElevenLabsVoice: cfg.ElevenLabsVoiceID,
		ElevenLabsModel: cfg.ElevenLabsModel,
	}, logger)

	videoStage := media.NewVideoStage(media.VideoStageOptions{
		APIURL: cfg.VideoAPIURL,
		APIKey: cfg.VideoAPIKey,
	}, logger)

	pipe := pipeline.New(chain, imageStage, audioStage, videoStage, cfg.DefaultLanguage, logger)

	return &App{
		Config:   cfg,
		Store:    store,
		History:  hist,
		Chain:    chain,
		Pipeline: pipe,
		Sessions: session.NewManager(pipe, hist, logger),
		logger:   logger,
	}, nil
}

// Close releases the storage handle and its directory lock.
func (a *App) Close() error {
	return a.Store.Close()
}
