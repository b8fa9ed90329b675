package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	t.Run("text output", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})

		logger.Info("hello", "key", "value")
		out := buf.String()
		assert.Contains(t, out, "hello")
		assert.Contains(t, out, "key=value")
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo, JSON: true})

		logger.Info("hello")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("level filtering", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

		logger.Info("dropped")
		logger.Warn("kept")
		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "kept")
	})
}

func TestNewNop(t *testing.T) {
	t.Parallel()
	// Must not panic and must accept any level.
	NewNop().Error("ignored")
}
