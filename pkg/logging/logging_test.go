package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestKeyValueFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := fromZap(zap.New(core)).Named("jobs").With("request_id", "r1")

	l.Info("audio uploaded", "job_id", "j1")
	l.Debug("cache hit")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "audio uploaded", entries[0].Message)
	assert.Equal(t, "jobs", entries[0].LoggerName)
	assert.Equal(t, map[string]interface{}{"request_id": "r1", "job_id": "j1"}, entries[0].ContextMap())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(""))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("loud"))
}

func TestNopAndNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().Warn("dropped", "k", "v")
		fromZap(nil).Error("dropped")
	})
}

func TestNewWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Output: &buf})

	l.Debug("hidden")
	l.Info("upload started", "file", "a.wav")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"upload started"`)
	assert.Contains(t, out, `"file":"a.wav"`)
}
