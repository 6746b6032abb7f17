package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), input)
	}
}

func TestNew_Format(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, "info", "json").Info("hello", "key", "value")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	New(&buf, "info", "text").Info("hello", "key", "value")
	assert.Contains(t, buf.String(), "msg=hello key=value")

	buf.Reset()
	New(&buf, "error", "text").Info("dropped")
	assert.Empty(t, buf.String())
}

func TestContextLogger(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer

	logger := New(&buf, "debug", "text").With("request_id", "abc")
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Debug("scoped")
	assert.Contains(t, buf.String(), "request_id=abc")
}
