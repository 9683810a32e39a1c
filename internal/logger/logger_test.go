package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger("warn", format, "dorm-admin")
		require.NoError(t, err, format)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel), format)
		assert.True(t, l.Core().Enabled(zapcore.ErrorLevel), format)
	}

	_, err := NewLogger("info", "xml", "dorm-admin")
	assert.Error(t, err)
}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(zapcore.AddSync(&buf), "info", "json", "dorm-admin")
	require.NoError(t, err)

	l.Debug("dropped")
	l.Info("room added", zap.String("room_id", "r1"))
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "room added", entry["msg"])
	assert.Equal(t, "dorm-admin", entry["service_name"])
	assert.Equal(t, "r1", entry["room_id"])
	assert.Contains(t, entry, "timestamp")
}
