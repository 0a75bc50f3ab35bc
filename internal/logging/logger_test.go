package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("registry", &buf, WARN)

	logger.Info("скрыто %d", 1)
	logger.Warn("видно %d", 2)
	logger.Error("ошибка %s", "id")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[WARN] [registry] видно 2")
	assert.Contains(t, out, "[ERROR] [registry] ошибка id")

	buf.Reset()
	logger.SetLevels(TRACE, TRACE)
	logger.Trace("трасса")
	assert.Contains(t, buf.String(), "[TRACE] [registry] трасса")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("что-то"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("ничего") })
}
