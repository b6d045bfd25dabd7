package common

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logger.LogLevel
		wantErr  bool
	}{
		{input: "debug", expected: logger.DEBUG},
		{input: "INFO", expected: logger.INFO},
		{input: "", expected: logger.INFO},
		{input: "warn", expected: logger.WARNING},
		{input: "warning", expected: logger.WARNING},
		{input: "error", expected: logger.ERROR},
		{input: "verbose", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			level, err := ParseLogLevel(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, level)
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	format, err := ParseLogFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, LogFormatJSON, format)

	format, err = ParseLogFormat("")
	require.NoError(t, err)
	assert.Equal(t, LogFormatConsole, format)

	_, err = ParseLogFormat("xml")
	assert.Error(t, err)
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LogFormatJSON)
	defer SetOutput(os.Stderr, LogFormatConsole)

	l := CreateLogger("store")
	l.SetLevel(logger.WARNING)

	l.Infof("hidden %d", 1)
	l.Warningf("visible %d", 2)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "store", entry["component"])
	assert.Equal(t, "visible 2", entry["message"])
}

func TestLoggerConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LogFormatConsole)
	defer SetOutput(os.Stderr, LogFormatConsole)

	CreateLogger("engine").Errorf("boom")

	out := buf.String()
	assert.Contains(t, out, "| ERROR |")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "component=engine")
}

func TestLoggerPanics(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LogFormatJSON)
	defer SetOutput(os.Stderr, LogFormatConsole)

	assert.PanicsWithValue(t, "fatal 3", func() {
		CreateLogger("cli").Panicf("fatal %d", 3)
	})
}

func TestInitLoggersRejectsInvalidConfig(t *testing.T) {
	assert.Error(t, InitLoggers(StoreConfig{LogLevel: "loud"}))
	assert.Error(t, InitLoggers(StoreConfig{LogFormat: "yaml"}))
}

func TestStoreConfig(t *testing.T) {
	cfg := StoreConfig{
		DataDir:   "data",
		Name:      "users",
		Engine:    "pebble",
		Codec:     "binary",
		LogLevel:  "info",
		LogFormat: "console",
	}

	assert.Equal(t, "data/users", cfg.StoreName())
	assert.Equal(t, "users", (&StoreConfig{Name: "users"}).StoreName())

	out := cfg.String()
	assert.Contains(t, out, "STORE")
	assert.Contains(t, out, "LOGGING")
	assert.Contains(t, out, "pebble")
}
