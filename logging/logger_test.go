package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid json config",
			config: Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name:   "valid text config",
			config: Config{Level: "debug", Format: "text", Output: "stderr"},
		},
		{
			name:    "invalid level",
			config:  Config{Level: "verbose", Format: "json", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "xml", Output: "stdout"},
			wantErr: true,
		},
		{
			name:   "defaults applied",
			config: Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, logger)
			}
		})
	}
}

func TestNewWritesStructuredRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchrun.log")
	logger, err := New(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("scenario run started",
		"scenario_id", "Q001",
		"platform_id", "CHATGPT",
	)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "scenario run started", record["msg"])
	assert.Equal(t, "Q001", record["scenario_id"])
	assert.Equal(t, "CHATGPT", record["platform_id"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"ERROR", slog.LevelError, false}, // case insensitive
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && level != tt.expected {
				t.Errorf("parseLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	config := Config{}
	config.setDefaults()

	if config.Level != "info" {
		t.Errorf("default level = %v, want info", config.Level)
	}
	if config.Format != "json" {
		t.Errorf("default format = %v, want json", config.Format)
	}
	if config.Output != "stdout" {
		t.Errorf("default output = %v, want stdout", config.Output)
	}
}
