package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFormat_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithFormat(&buf, slog.LevelInfo, FormatJSON)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("node_error", "error", errors.New("boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "node_error", line["msg"])
	assert.Equal(t, "boom", line["err"])
	assert.NotContains(t, line, "error")
}

func TestNewWithFormat_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithFormat(&buf, slog.LevelDebug, "")
	require.NoError(t, err)

	logger.Debug("check", "error", "bad")
	assert.Contains(t, buf.String(), "msg=check")
	assert.Contains(t, buf.String(), "err=bad")
}

func TestNewWithFormat_Unknown(t *testing.T) {
	_, err := NewWithFormat(&bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.Error(t, err)
}
