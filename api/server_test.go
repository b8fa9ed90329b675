package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythosai/mythos/internal/history"
	"github.com/mythosai/mythos/internal/lesson"
	"github.com/mythosai/mythos/internal/log"
	"github.com/mythosai/mythos/internal/pipeline"
	"github.com/mythosai/mythos/internal/provider"
	"github.com/mythosai/mythos/internal/session"
	"github.com/mythosai/mythos/internal/storage"
)

// stubText returns a fixed structured result for every request.
type stubText struct {
	result provider.TextResult
	quiz   []lesson.QuizQuestion
}

func (s *stubText) GenerateText(context.Context, provider.Prompt) (*provider.TextResult, error) {
	out := s.result
	return &out, nil
}

func (s *stubText) GenerateQuiz(context.Context, provider.Prompt) ([]lesson.QuizQuestion, error) {
	return s.quiz, nil
}

type stubImage struct{ ref string }

func (s *stubImage) Generate(context.Context, string) string { return s.ref }

type stubAudio struct{}

func (stubAudio) Narrate(context.Context, string) string { return "" }

type stubVideo struct{}

func (stubVideo) Configured() bool { return false }
func (stubVideo) Generate(context.Context, string, string, string) (string, error) {
	return "", nil
}

// newTestServer wires a full server over a temp-dir store and stubbed
// generation backends.
func newTestServer(t *testing.T, text pipeline.TextGenerator) (*Server, *history.Store) {
	t.Helper()
	logger := log.NewNop()

	store, err := storage.Open(t.TempDir(), 0, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hist := history.New(store, 5, 1000, logger)
	pipe := pipeline.New(text, &stubImage{ref: "data:image/png;base64,AAAA"}, stubAudio{}, stubVideo{}, "Français", logger)
	manager := session.NewManager(pipe, hist, logger)

	return NewServer(manager, hist, pipe, store, logger), hist
}

func defaultStub() *stubText {
	return &stubText{
		result: provider.TextResult{
			Title:       "Les Volcans",
			Content:     "## Introduction\nLa Terre gronde.",
			ImagePrompt: "a volcano erupting",
			NextStep:    "Et les geysers ?",
		},
		quiz: []lesson.QuizQuestion{{
			Question:      "Q1",
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: "a",
			Explanation:   "parce que",
		}},
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServerRoutes(t *testing.T) {
	server, _ := newTestServer(t, defaultStub())
	handler := server.Handler()

	t.Run("unknown route is 404", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/api/unknown", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong method is rejected", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPut, "/api/lessons", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServerRunShutdown(t *testing.T) {
	server, _ := newTestServer(t, defaultStub())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, "127.0.0.1:0")
	}()

	cancel()
	assert.NoError(t, <-done)
}
