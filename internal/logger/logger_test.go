package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flotiq/flotiq-setup/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr string
	}{
		{
			name:    "level",
			cfg:     config.LoggingConfig{Level: "loud", Format: "console"},
			wantErr: "invalid log level",
		},
		{
			name:    "format",
			cfg:     config.LoggingConfig{Level: "info", Format: "xml"},
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLogger(&tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "setup.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	log, err := NewLogger(&config.LoggingConfig{
		Level:             "info",
		Format:            "json",
		DisableStacktrace: true,
		OutputPath:        path,
		AppendToFile:      false,
	})
	require.NoError(t, err)

	log.Debug("filtered out")
	log.Info("listener bound", zap.Int("port", 5989))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "listener bound", entry["msg"])
	assert.EqualValues(t, 5989, entry["port"])
}

func TestNewLogger_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "setup.log")

	log, err := NewLogger(&config.LoggingConfig{Level: "warn", OutputPath: path, AppendToFile: true})
	require.NoError(t, err)
	log.Warn("port busy")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "port busy")
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { globalLogger = zap.NewNop() })

	require.Error(t, InitLogger(&config.LoggingConfig{Level: "loud"}))
	assert.NotNil(t, GetLogger())

	require.NoError(t, InitLogger(&config.LoggingConfig{Level: "error", Format: "console"}))
	assert.True(t, GetLogger().Core().Enabled(zap.ErrorLevel))
	assert.False(t, GetLogger().Core().Enabled(zap.InfoLevel))
}
