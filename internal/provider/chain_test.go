package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythosai/mythos/internal/lesson"
	"github.com/mythosai/mythos/internal/log"
)

// fakeGenerator counts calls and returns canned results.
type fakeGenerator struct {
	name      string
	textCalls int
	quizCalls int

	result *TextResult
	quiz   []lesson.QuizQuestion
	err    error
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) GenerateText(_ context.Context, _ Prompt) (*TextResult, error) {
	f.textCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGenerator) GenerateQuiz(_ context.Context, _ Prompt) ([]lesson.QuizQuestion, error) {
	f.quizCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quiz, nil
}

func newTestChain(generators ...Generator) *Chain {
	return NewChainWith(generators, time.Second, 600, log.NewNop())
}

func TestChainGenerateText(t *testing.T) {
	t.Parallel()

	prompt := Prompt{Text: "explique les volcans", Topic: "les volcans"}

	t.Run("empty chain serves placeholder without calling anything", func(t *testing.T) {
		t.Parallel()
		chain := newTestChain()

		result, err := chain.GenerateText(context.Background(), prompt)
		require.NoError(t, err)
		assert.True(t, result.Offline)
		assert.Contains(t, result.Title, "les volcans")
		assert.False(t, chain.Configured())
	})

	t.Run("first backend success short-circuits", func(t *testing.T) {
		t.Parallel()
		first := &fakeGenerator{name: "first", result: &TextResult{Title: "T", Content: "C", ImagePrompt: "P"}}
		second := &fakeGenerator{name: "second", result: &TextResult{Title: "other"}}
		chain := newTestChain(first, second)

		result, err := chain.GenerateText(context.Background(), prompt)
		require.NoError(t, err)
		assert.Equal(t, "T", result.Title)
		assert.Equal(t, 1, first.textCalls)
		assert.Zero(t, second.textCalls)
	})

	t.Run("failure advances to next backend", func(t *testing.T) {
		t.Parallel()
		first := &fakeGenerator{name: "first", err: errors.New("rate limited")}
		second := &fakeGenerator{name: "second", result: &TextResult{Title: "T2", Content: "C", ImagePrompt: "P"}}
		chain := newTestChain(first, second)

		result, err := chain.GenerateText(context.Background(), prompt)
		require.NoError(t, err)
		assert.Equal(t, "T2", result.Title)
		assert.Equal(t, 1, first.textCalls)
		assert.Equal(t, 1, second.textCalls)
	})

	t.Run("malformed response counts as failure", func(t *testing.T) {
		t.Parallel()
		first := &fakeGenerator{name: "first", err: ErrMalformedResponse}
		second := &fakeGenerator{name: "second", result: &TextResult{Title: "T2", Content: "C", ImagePrompt: "P"}}
		chain := newTestChain(first, second)

		result, err := chain.GenerateText(context.Background(), prompt)
		require.NoError(t, err)
		assert.Equal(t, "T2", result.Title)
	})

	t.Run("all backends failing degrades to placeholder", func(t *testing.T) {
		t.Parallel()
		first := &fakeGenerator{name: "first", err: errors.New("boom")}
		second := &fakeGenerator{name: "second", err: errors.New("boom too")}
		chain := newTestChain(first, second)

		result, err := chain.GenerateText(context.Background(), prompt)
		require.NoError(t, err)
		assert.True(t, result.Offline)
		assert.Equal(t, 1, first.textCalls)
		assert.Equal(t, 1, second.textCalls)
	})

	t.Run("cancelled context propagates", func(t *testing.T) {
		t.Parallel()
		first := &fakeGenerator{name: "first", err: context.Canceled}
		chain := newTestChain(first)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := chain.GenerateText(ctx, prompt)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestChainGenerateQuiz(t *testing.T) {
	t.Parallel()

	prompt := Prompt{Text: "quiz sur les volcans", Topic: "les volcans"}
	quiz := []lesson.QuizQuestion{{
		Question:      "Q",
		Options:       []string{"a", "b", "c"},
		CorrectAnswer: "a",
		Explanation:   "E",
	}}

	t.Run("first success wins", func(t *testing.T) {
		t.Parallel()
		first := &fakeGenerator{name: "first", quiz: quiz}
		chain := newTestChain(first)

		questions, err := chain.GenerateQuiz(context.Background(), prompt)
		require.NoError(t, err)
		assert.Len(t, questions, 1)
	})

	t.Run("exhaustion yields empty quiz, not an error", func(t *testing.T) {
		t.Parallel()
		first := &fakeGenerator{name: "first", err: errors.New("boom")}
		chain := newTestChain(first)

		questions, err := chain.GenerateQuiz(context.Background(), prompt)
		require.NoError(t, err)
		assert.Empty(t, questions)
	})

	t.Run("empty chain yields empty quiz", func(t *testing.T) {
		t.Parallel()
		chain := newTestChain()

		questions, err := chain.GenerateQuiz(context.Background(), prompt)
		require.NoError(t, err)
		assert.Empty(t, questions)
	})
}
