package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pbaille/cfaprep/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsoleLogger(t *testing.T) {
	log, err := New(&config.LoggerSettings{LogLevel: config.LogLevelInfo, LogType: config.LogTypeConsole})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(&config.LoggerSettings{
		LogLevel:   config.LogLevelDebug,
		LogType:    config.LogTypeFile,
		FilePath:   path,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	require.NoError(t, err)

	log.Info("job completed", "job_id", "abc")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"job_id":"abc"`)
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	_, err := New(&config.LoggerSettings{LogLevel: "loud", LogType: config.LogTypeConsole})
	assert.Error(t, err)
}

func TestWriterLevelsAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, config.LogLevelWarning).With("component", "rag")

	log.Info("dropped")
	log.Warn("kept", "chunks", 3)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "rag", entry["component"])
	assert.Equal(t, float64(3), entry["chunks"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel(config.LogLevelDebug))
	assert.Equal(t, slog.LevelWarn, parseLevel(config.LogLevelWarning))
	assert.Equal(t, slog.LevelInfo, parseLevel("unknown"))
}
