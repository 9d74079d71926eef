package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONByDefault(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, err := newLogger("", "/stationcargo/", &stdout, &stderr)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shell created", "device_id", "01J")

	assert.Empty(t, stdout.String())
	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), `"msg":"shell created"`)
	assert.Contains(t, stderr.String(), `"device_id":"01J"`)
}

func TestNewLogger_WarnLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, err := newLogger("warn", "/stationcargo/", &stdout, &stderr)
	require.NoError(t, err)

	logger.Info("skipped")
	logger.Warn("kept")
	assert.NotContains(t, stderr.String(), "skipped")
	assert.Contains(t, stderr.String(), "kept")
}

func TestNewLogger_DebugUsesTint(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, err := newLogger("debug", "/stationcargo/", &stdout, &stderr)
	require.NoError(t, err)

	logger.Debug("restoring session", "error", errors.New("slot unavailable"))
	assert.Empty(t, stderr.String())
	assert.Contains(t, stdout.String(), "restoring session")
	assert.Contains(t, stdout.String(), "slot unavailable")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := newLogger("chatty", "/stationcargo/", &bytes.Buffer{}, &bytes.Buffer{})
	assert.EqualError(t, err, "invalid log level: chatty")
}

func TestCleanSourcePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/home/dev/stationcargo/internal/shell/shell.go", "internal/shell/shell.go"},
		{"/root/go/src/example.com/pkg/file.go", "example.com/pkg/file.go"},
		{"/usr/local/go/src/net/http/server.go", "net/http/server.go"},
		{"file.go", "file.go"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanSourcePath(tt.in, "/stationcargo/"))
	}
}

func TestPathBase(t *testing.T) {
	assert.Equal(t, "stationcargo", pathBase("github.com/loganlanou/stationcargo"))
	assert.Equal(t, "tool", pathBase("tool"))
}
