package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, Level(0))
	assert.Equal(t, zapcore.InfoLevel, Level(1))
	assert.Equal(t, zapcore.DebugLevel, Level(2))
	assert.Equal(t, zapcore.DebugLevel, Level(5))
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, 0)
	log.Info("hidden")
	log.Warn("serial timeout", zap.Int("outstanding", 2))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "serial timeout")
	assert.Contains(t, buf.String(), `"outstanding": 2`)

	buf.Reset()
	NewWriter(&buf, 2).Debug("sent")
	assert.Contains(t, buf.String(), "sent")
}
