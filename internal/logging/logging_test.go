package logging

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	assert.Empty(t, buf.String())

	l.Warn("warn %d", 3)
	l.Error("error %d", 4)
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "warn 3")
	assert.Contains(t, buf.String(), "error 4")
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "verbose")

	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", File: "api.log", MaxSize: 10}, false},
		{"bad level", Config{Level: "loud", File: "api.log", MaxSize: 10}, true},
		{"no file", Config{Level: "info", MaxSize: 10}, true},
		{"zero size", Config{Level: "info", File: "api.log"}, true},
		{"negative backups", Config{Level: "info", File: "api.log", MaxSize: 1, MaxBackups: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLoggerCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(&Config{
		Level:   LevelInfo,
		File:    filepath.Join(dir, "nested", "api.log"),
		MaxSize: 1,
	})
	require.NoError(t, err)
	l.Info("hello")
	assert.NoError(t, l.Close())
	assert.DirExists(t, filepath.Join(dir, "nested"))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ctx"))

	err := WrapError(ErrDownstream, "persist contact/1.json")
	assert.EqualError(t, err, "persist contact/1.json: downstream delivery error")
	assert.True(t, errors.Is(err, ErrDownstream))
}
