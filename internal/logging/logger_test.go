package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewLogger_ConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "rpulse.log")

	logger, err := NewLogger(Config{
		Level:      slog.LevelInfo,
		OutputFile: path,
		JSONFormat: true,
		Console:    &console,
	})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("refresh complete", "users", 12)
	require.NoError(t, logger.Close())

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), `"msg":"refresh complete"`)
	assert.Contains(t, console.String(), `"users":12`)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, console.String(), string(data))
}

func TestNewLogger_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rpulse.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644))

	logger, err := NewLogger(Config{OutputFile: path, MaxSize: 32, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	logger.Info("fresh")
	require.NoError(t, logger.Close())

	rotated, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, rotated, 64)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), "msg=fresh")
}

func TestInitialize_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var console bytes.Buffer
	_, err := Initialize(Config{Level: slog.LevelDebug, Console: &console})
	require.NoError(t, err)

	slog.Debug("via default", "component", "keyring")
	assert.Contains(t, console.String(), "via default")
	assert.NoError(t, Close())
}

func TestDefaultLogFile(t *testing.T) {
	t.Setenv("HOME", "/home/instructor")
	at := time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)

	got := DefaultLogFile(at)
	assert.Equal(t, filepath.Join("/home/instructor", ".rosterpulse", "logs", "rpulse_2024-01-05_09-30-00.log"), got)
}
