package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestNew_InvalidEncodingPanics(t *testing.T) {
	assert.Panics(t, func() {
		New("nanny_bot", &Config{Encoding: "xml", Level: "info"})
	})
}

func TestLogger_MasksPersonalData(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("nanny_bot", &Config{Encoding: "json"}, &buf, &buf)

	log.Info("phone saved", "phone", "+79991234567", "address", "Ленина 1", "user_id", "u1")

	out := buf.String()
	assert.NotContains(t, out, "+79991234567")
	assert.Contains(t, out, `"phone":"***4567"`)
	assert.Contains(t, out, `"address":"***на 1"`)
	assert.Contains(t, out, `"user_id":"u1"`)
	assert.Contains(t, out, `"app":"nanny_bot"`)
}

func TestMask_Short(t *testing.T) {
	assert.Equal(t, "***", mask("123"))
}
