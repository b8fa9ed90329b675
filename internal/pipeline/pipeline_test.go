package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythosai/mythos/internal/lesson"
	"github.com/mythosai/mythos/internal/log"
	"github.com/mythosai/mythos/internal/provider"
)

type fakeText struct {
	result *provider.TextResult
	quiz   []lesson.QuizQuestion
	err    error

	lastPrompt provider.Prompt
}

func (f *fakeText) GenerateText(_ context.Context, p provider.Prompt) (*provider.TextResult, error) {
	f.lastPrompt = p
	return f.result, f.err
}

func (f *fakeText) GenerateQuiz(_ context.Context, p provider.Prompt) ([]lesson.QuizQuestion, error) {
	f.lastPrompt = p
	return f.quiz, f.err
}

type fakeImage struct {
	ref   string
	calls int

	lastPrompt string
}

func (f *fakeImage) Generate(_ context.Context, prompt string) string {
	f.calls++
	f.lastPrompt = prompt
	return f.ref
}

type fakeAudio struct {
	ref   string
	calls int
}

func (f *fakeAudio) Narrate(context.Context, string) string {
	f.calls++
	return f.ref
}

type fakeVideo struct {
	configured bool
	ref        string
	err        error
	calls      int

	lastImage string
}

func (f *fakeVideo) Configured() bool { return f.configured }

func (f *fakeVideo) Generate(_ context.Context, _, imageBase64, _ string) (string, error) {
	f.calls++
	f.lastImage = imageBase64
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

var textResult = &provider.TextResult{
	Title:       "Les Volcans",
	Content:     "## Introduction\nLa Terre gronde.",
	ImagePrompt: "a volcano erupting",
}

func baseRequest(media lesson.MediaKind) lesson.Request {
	return lesson.Request{
		Topic:   "les volcans",
		Genre:   lesson.GenreEducational,
		AgeBand: lesson.AgeChild,
		Style:   lesson.StyleDigitalArt,
		Media:   media,
	}
}

func TestPipelineGenerate(t *testing.T) {
	t.Parallel()

	t.Run("empty topic rejected before any stage", func(t *testing.T) {
		t.Parallel()
		text := &fakeText{result: textResult}
		image := &fakeImage{}
		p := New(text, image, &fakeAudio{}, &fakeVideo{}, "Français", log.NewNop())

		_, err := p.Generate(context.Background(), lesson.Request{})
		assert.ErrorIs(t, err, lesson.ErrEmptyTopic)
		assert.Zero(t, image.calls)
	})

	t.Run("text-only request skips image and video", func(t *testing.T) {
		t.Parallel()
		image := &fakeImage{ref: "data:image/png;base64,AAAA"}
		video := &fakeVideo{configured: true}
		audio := &fakeAudio{ref: "data:audio/pcm;base64,BBBB"}
		p := New(&fakeText{result: textResult}, image, audio, video, "Français", log.NewNop())

		artifact, err := p.Generate(context.Background(), baseRequest(lesson.MediaText))
		require.NoError(t, err)
		assert.Empty(t, artifact.ImageRef)
		assert.Empty(t, artifact.VideoRef)
		assert.Zero(t, image.calls)
		assert.Zero(t, video.calls)
		assert.Equal(t, 1, audio.calls)
	})

	t.Run("illustrated request attaches image and audio", func(t *testing.T) {
		t.Parallel()
		image := &fakeImage{ref: "data:image/png;base64,AAAA"}
		p := New(&fakeText{result: textResult}, image, &fakeAudio{ref: "audio"}, &fakeVideo{}, "Français", log.NewNop())

		artifact, err := p.Generate(context.Background(), baseRequest(lesson.MediaIllustrated))
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,AAAA", artifact.ImageRef)
		assert.Equal(t, "audio", artifact.AudioRef)
		assert.Contains(t, image.lastPrompt, "a volcano erupting")
		assert.Contains(t, image.lastPrompt, "Art Numérique")
	})

	t.Run("video backend error serves the simulated clip", func(t *testing.T) {
		t.Parallel()
		image := &fakeImage{ref: "data:image/png;base64,AAAA"}
		video := &fakeVideo{configured: true, err: errors.New("insufficient credits")}
		audio := &fakeAudio{ref: "audio"}
		p := New(&fakeText{result: textResult}, image, audio, video, "Français", log.NewNop())

		artifact, err := p.Generate(context.Background(), baseRequest(lesson.MediaVideo))
		require.NoError(t, err)
		assert.Equal(t, "insufficient credits", artifact.VideoError)
		assert.True(t, artifact.VideoSimulated)
		assert.Equal(t, artifact.ImageRef, artifact.VideoRef)
		assert.Equal(t, "data:image/png;base64,AAAA", artifact.ImageRef)
		assert.Equal(t, "audio", artifact.AudioRef)
	})

	t.Run("video succeeds from the generated base image", func(t *testing.T) {
		t.Parallel()
		image := &fakeImage{ref: "data:image/png;base64,AAAA"}
		video := &fakeVideo{configured: true, ref: "https://cdn.example/clip.mp4"}
		p := New(&fakeText{result: textResult}, image, &fakeAudio{}, video, "Français", log.NewNop())

		artifact, err := p.Generate(context.Background(), baseRequest(lesson.MediaVideo))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/clip.mp4", artifact.VideoRef)
		assert.False(t, artifact.VideoSimulated)
		assert.Equal(t, "AAAA", video.lastImage)
		assert.Equal(t, lesson.ContainerMP4, artifact.VideoContainer)
	})

	t.Run("video without inline base image reports the base error", func(t *testing.T) {
		t.Parallel()
		image := &fakeImage{ref: "https://img.example/prompt/x"}
		video := &fakeVideo{configured: true, ref: "unused"}
		p := New(&fakeText{result: textResult}, image, &fakeAudio{}, video, "Français", log.NewNop())

		artifact, err := p.Generate(context.Background(), baseRequest(lesson.MediaVideo))
		require.NoError(t, err)
		assert.Equal(t, videoBaseImageError, artifact.VideoError)
		assert.Zero(t, video.calls)
	})

	t.Run("unconfigured video gateway serves simulated clip", func(t *testing.T) {
		t.Parallel()
		image := &fakeImage{ref: "data:image/png;base64,AAAA"}
		p := New(&fakeText{result: textResult}, image, &fakeAudio{}, &fakeVideo{configured: false}, "Français", log.NewNop())

		artifact, err := p.Generate(context.Background(), baseRequest(lesson.MediaVideo))
		require.NoError(t, err)
		assert.True(t, artifact.VideoSimulated)
		assert.Equal(t, artifact.ImageRef, artifact.VideoRef)
	})

	t.Run("fast mode skips narration", func(t *testing.T) {
		t.Parallel()
		audio := &fakeAudio{ref: "audio"}
		p := New(&fakeText{result: textResult}, &fakeImage{}, audio, &fakeVideo{}, "Français", log.NewNop())

		req := baseRequest(lesson.MediaText)
		req.FastMode = true
		artifact, err := p.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Empty(t, artifact.AudioRef)
		assert.Zero(t, audio.calls)
	})

	t.Run("follow-up is text-only regardless of media kind", func(t *testing.T) {
		t.Parallel()
		text := &fakeText{result: &provider.TextResult{Title: "Suite", Content: "Encore", NextStep: "Et après ?"}}
		image := &fakeImage{}
		audio := &fakeAudio{}
		video := &fakeVideo{configured: true}
		p := New(text, image, audio, video, "Français", log.NewNop())

		req := baseRequest(lesson.MediaVideo)
		req.FollowUp = true
		req.Context = []lesson.Turn{
			{Role: lesson.RoleAssistant, Text: "Leçon initiale"},
			{Role: lesson.RoleUser, Text: "Et les geysers ?"},
		}

		artifact, err := p.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Et après ?", artifact.NextStep)
		assert.Zero(t, image.calls)
		assert.Zero(t, audio.calls)
		assert.Zero(t, video.calls)
		assert.True(t, text.lastPrompt.FollowUp)
		assert.Contains(t, text.lastPrompt.Text, "Et les geysers ?")
	})

	t.Run("offline placeholder runs no media stage", func(t *testing.T) {
		t.Parallel()
		offline := provider.Offline{}.Placeholder("les volcans")
		image := &fakeImage{}
		audio := &fakeAudio{}
		video := &fakeVideo{configured: true}
		p := New(&fakeText{result: offline}, image, audio, video, "Français", log.NewNop())

		artifact, err := p.Generate(context.Background(), baseRequest(lesson.MediaVideo))
		require.NoError(t, err)
		assert.Equal(t, offline.ImageRef, artifact.ImageRef)
		assert.Equal(t, offline.ImageRef, artifact.VideoRef)
		assert.True(t, artifact.VideoSimulated)
		assert.Zero(t, image.calls)
		assert.Zero(t, audio.calls)
		assert.Zero(t, video.calls)
	})

	t.Run("offline placeholder is marked simulated for any media kind", func(t *testing.T) {
		t.Parallel()
		offline := provider.Offline{}.Placeholder("les volcans")
		p := New(&fakeText{result: offline}, &fakeImage{}, &fakeAudio{}, &fakeVideo{}, "Français", log.NewNop())

		artifact, err := p.Generate(context.Background(), baseRequest(lesson.MediaText))
		require.NoError(t, err)
		assert.True(t, artifact.VideoSimulated)
		assert.Equal(t, offline.ImageRef, artifact.ImageRef)
		assert.Empty(t, artifact.VideoRef)
	})

	t.Run("text generator failure propagates", func(t *testing.T) {
		t.Parallel()
		p := New(&fakeText{err: context.Canceled}, &fakeImage{}, &fakeAudio{}, &fakeVideo{}, "Français", log.NewNop())

		_, err := p.Generate(context.Background(), baseRequest(lesson.MediaText))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPipelineRegenerateMedia(t *testing.T) {
	t.Parallel()

	item := lesson.HistoryItem{
		Artifact: lesson.Artifact{
			Title:       "Les Volcans",
			Content:     "corps",
			ImagePrompt: "a volcano erupting",
			ImageRef:    "old-ref",
			VideoError:  "old error",
		},
		ID:    "id-1",
		Topic: "les volcans",
		Media: lesson.MediaIllustrated,
	}

	t.Run("rebuilds image and clears stale video state", func(t *testing.T) {
		t.Parallel()
		image := &fakeImage{ref: "data:image/png;base64,NEW"}
		p := New(&fakeText{}, image, &fakeAudio{}, &fakeVideo{}, "Français", log.NewNop())

		artifact := p.RegenerateMedia(context.Background(), item, lesson.StyleWatercolor)
		assert.Equal(t, "data:image/png;base64,NEW", artifact.ImageRef)
		assert.Empty(t, artifact.VideoError)
		assert.Equal(t, "Les Volcans", artifact.Title)
		assert.Contains(t, image.lastPrompt, "Aquarelle")
	})

	t.Run("video item regenerates the clip too", func(t *testing.T) {
		t.Parallel()
		videoItem := item
		videoItem.Media = lesson.MediaVideo
		image := &fakeImage{ref: "data:image/png;base64,NEW"}
		video := &fakeVideo{configured: true, ref: "https://cdn.example/new.mp4"}
		p := New(&fakeText{}, image, &fakeAudio{}, video, "Français", log.NewNop())

		artifact := p.RegenerateMedia(context.Background(), videoItem, lesson.StyleDigitalArt)
		assert.Equal(t, "https://cdn.example/new.mp4", artifact.VideoRef)
		assert.Equal(t, 1, video.calls)
	})
}

func TestPipelineQuiz(t *testing.T) {
	t.Parallel()

	quiz := []lesson.QuizQuestion{{Question: "Q", Options: []string{"a", "b", "c"}, CorrectAnswer: "a"}}
	text := &fakeText{quiz: quiz}
	p := New(text, &fakeImage{}, &fakeAudio{}, &fakeVideo{}, "Français", log.NewNop())

	questions, err := p.Quiz(context.Background(), "les volcans", "corps de la leçon")
	require.NoError(t, err)
	assert.Len(t, questions, 1)
	assert.Contains(t, text.lastPrompt.Text, "corps de la leçon")
	assert.Contains(t, text.lastPrompt.Text, "5 questions")
}

func TestInlineBase64(t *testing.T) {
	t.Parallel()

	payload, ok := inlineBase64("data:image/png;base64,AAAA")
	assert.True(t, ok)
	assert.Equal(t, "AAAA", payload)

	_, ok = inlineBase64("https://img.example/x.png")
	assert.False(t, ok)

	_, ok = inlineBase64("data:image/png;base64,")
	assert.False(t, ok)
}
