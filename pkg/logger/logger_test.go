package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, "warn")

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "warn 3")
	assert.Contains(t, lines[1], "error 4")
}

func TestLogger_PaymentFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, "info")

	l.Payment("активация", "pay_1_abc", 42, "weekly")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pay_1_abc", entry["payment_id"])
	assert.Equal(t, float64(42), entry["user_id"])
	assert.Equal(t, "weekly", entry["plan"])
}

func TestGlobal_NoLoggerIsSafe(t *testing.T) {
	prev := globalLogger
	globalLogger = nil
	defer func() { globalLogger = prev }()

	assert.NotPanics(t, func() {
		Info("ничего %s", "не происходит")
		Payment("x", "y", 1, "z")
	})
}
