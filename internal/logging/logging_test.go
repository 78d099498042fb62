package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantJSON bool
	}{
		{name: "auto on a buffer is json", format: FormatAuto, wantJSON: true},
		{name: "empty is auto", format: "", wantJSON: true},
		{name: "json", format: FormatJSON, wantJSON: true},
		{name: "text", format: FormatText, wantJSON: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(Options{Level: "info", Format: tt.format, Writer: &buf})
			require.NoError(t, err)

			logger.Info("role added", "role", "WebRole")

			var rec map[string]any
			err = json.Unmarshal(buf.Bytes(), &rec)
			if tt.wantJSON {
				require.NoError(t, err)
				assert.Equal(t, "role added", rec["msg"])
				assert.Equal(t, "WebRole", rec["role"])
			} else {
				assert.Error(t, err)
				assert.Contains(t, buf.String(), "role=WebRole")
			}
		})
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: FormatText, Writer: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
