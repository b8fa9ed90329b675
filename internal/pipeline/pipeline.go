// Package pipeline orchestrates one generation request end to end: lesson
// text through the provider chain, then illustration, video and narration
// as independent best-effort stages.
//
// Stage independence is the core contract. Text success is required; every
// media stage may fail without affecting the others or the request. A video
// failure is recorded on the artifact, an image failure falls back to an
// external URL, a narration failure leaves the lesson silent.
package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mythosai/mythos/internal/lesson"
	"github.com/mythosai/mythos/internal/provider"
)

// videoBaseImageError is shown when no inline base image exists to animate.
const videoBaseImageError = "Impossible de générer l'image de base nécessaire à la vidéo."

// TextGenerator produces lesson text and quizzes. Implemented by
// provider.Chain.
type TextGenerator interface {
	GenerateText(ctx context.Context, p provider.Prompt) (*provider.TextResult, error)
	GenerateQuiz(ctx context.Context, p provider.Prompt) ([]lesson.QuizQuestion, error)
}

// ImageStage resolves an illustration reference. Implemented by
// media.ImageStage; never fails.
type ImageStage interface {
	Generate(ctx context.Context, prompt string) string
}

// AudioStage resolves a narration reference, or "" on failure. Implemented
// by media.AudioStage.
type AudioStage interface {
	Narrate(ctx context.Context, text string) string
}

// VideoStage animates a base image into a clip. Implemented by
// media.VideoStage.
type VideoStage interface {
	Configured() bool
	Generate(ctx context.Context, prompt, imageBase64, format string) (string, error)
}

// Pipeline runs generation requests against the configured stages.
type Pipeline struct {
	text  TextGenerator
	image ImageStage
	audio AudioStage
	video VideoStage

	defaultLanguage string
	logger          *slog.Logger
}

// New creates a Pipeline over the given stages.
func New(text TextGenerator, image ImageStage, audio AudioStage, video VideoStage, defaultLanguage string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		text:            text,
		image:           image,
		audio:           audio,
		video:           video,
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// Generate resolves req into an artifact. Only request validation and local
// failures (a cancelled context) produce an error; provider and media
// failures degrade instead.
func (p *Pipeline) Generate(ctx context.Context, req lesson.Request) (lesson.Artifact, error) {
	if err := req.Validate(); err != nil {
		return lesson.Artifact{}, err
	}

	var prompt provider.Prompt
	if req.FollowUp {
		prompt = BuildFollowUpPrompt(req, p.defaultLanguage)
	} else {
		prompt = BuildLessonPrompt(req, p.defaultLanguage)
	}

	result, err := p.text.GenerateText(ctx, prompt)
	if err != nil {
		return lesson.Artifact{}, err
	}

	artifact := lesson.Artifact{
		Title:       result.Title,
		Content:     result.Content,
		ImagePrompt: result.ImagePrompt,
		NextStep:    result.NextStep,
	}

	// Follow-up turns are text-only regardless of the session's media kind.
	if req.FollowUp {
		return artifact, nil
	}

	if result.Offline {
		return p.offlineArtifact(artifact, result, req), nil
	}

	if req.Media != lesson.MediaText {
		finalPrompt := BuildImagePrompt(result.ImagePrompt, req)
		artifact.ImageRef = p.image.Generate(ctx, finalPrompt)
	}

	if req.Media == lesson.MediaVideo {
		p.generateVideo(ctx, &artifact, result.ImagePrompt, req.VideoContainer)
	}

	if !req.FastMode {
		spoken := NarrationText(artifact.Content)
		educational := req.Genre == lesson.GenreEducational
		artifact.AudioRef = p.audio.Narrate(ctx, BuildNarrationPrompt(artifact.Title, spoken, educational))
	}

	return artifact, nil
}

// offlineArtifact finishes the deterministic placeholder without any stage
// call. The fixed external image URL doubles as the simulated video frame,
// and the simulated flag is always set so callers can tell placeholder
// output from generated media regardless of the requested kind.
func (p *Pipeline) offlineArtifact(artifact lesson.Artifact, result *provider.TextResult, req lesson.Request) lesson.Artifact {
	artifact.ImageRef = result.ImageRef
	artifact.VideoSimulated = true
	if req.Media == lesson.MediaVideo {
		artifact.VideoRef = artifact.ImageRef
		artifact.VideoContainer = containerOrDefault(req.VideoContainer)
	}
	return artifact
}

// generateVideo runs the video stage and records its outcome on artifact.
// When the gateway is unconfigured or errors, the image stands in as a
// simulated clip; only a missing base image leaves the video absent.
func (p *Pipeline) generateVideo(ctx context.Context, artifact *lesson.Artifact, imagePrompt string, container lesson.VideoContainer) {
	artifact.VideoContainer = containerOrDefault(container)

	if !p.video.Configured() {
		p.logger.Info("video gateway not configured, serving simulated clip")
		artifact.VideoRef = artifact.ImageRef
		artifact.VideoSimulated = true
		return
	}

	base64Image, ok := inlineBase64(artifact.ImageRef)
	if !ok {
		artifact.VideoError = videoBaseImageError
		return
	}

	ref, err := p.video.Generate(ctx, imagePrompt, base64Image, string(artifact.VideoContainer))
	if err != nil {
		p.logger.Warn("video generation failed, serving simulated clip", "error", err)
		artifact.VideoError = err.Error()
		artifact.VideoRef = artifact.ImageRef
		artifact.VideoSimulated = true
		return
	}
	artifact.VideoRef = ref
}

// Quiz generates multiple-choice questions over a lesson's content. An
// empty result means no backend could produce one.
func (p *Pipeline) Quiz(ctx context.Context, topic, content string) ([]lesson.QuizQuestion, error) {
	return p.text.GenerateQuiz(ctx, BuildQuizPrompt(topic, content))
}

// RegenerateMedia rebuilds the media references of a stored item from its
// retained illustration prompt, leaving the text untouched. The style may
// differ from the original generation.
func (p *Pipeline) RegenerateMedia(ctx context.Context, item lesson.HistoryItem, style lesson.VisualStyle) lesson.Artifact {
	artifact := item.Artifact
	artifact.VideoRef = ""
	artifact.VideoError = ""
	artifact.VideoSimulated = false

	req := lesson.Request{Style: style, Media: item.Media, HaitianCulture: false}
	artifact.ImageRef = p.image.Generate(ctx, BuildImagePrompt(item.ImagePrompt, req))

	if item.Media == lesson.MediaVideo {
		p.generateVideo(ctx, &artifact, item.ImagePrompt, item.VideoContainer)
	}
	return artifact
}

// inlineBase64 extracts the base64 payload from a data URI. External URLs
// have no inline bytes and report false.
func inlineBase64(ref string) (string, bool) {
	if !strings.HasPrefix(ref, "data:") {
		return "", false
	}
	_, payload, found := strings.Cut(ref, ";base64,")
	if !found || payload == "" {
		return "", false
	}
	return payload, true
}

func containerOrDefault(c lesson.VideoContainer) lesson.VideoContainer {
	if c == "" {
		return lesson.ContainerMP4
	}
	return c
}
