package utils

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestErrorLoggerKeepsWarnings(t *testing.T) {
	InitLogger()

	var buf bytes.Buffer
	ErrorLogger.SetOutput(&buf)

	ErrorLogger.WithField("event", "session_started").Warn("event not queued")
	ErrorLogger.Info("noise")

	assert.True(t, ErrorLogger.IsLevelEnabled(logrus.WarnLevel))
	assert.Contains(t, buf.String(), "event not queued")
	assert.NotContains(t, buf.String(), "noise")
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, logrus.DebugLevel, levelFromEnv("LOG_LEVEL", logrus.InfoLevel))

	t.Setenv("LOG_LEVEL", "loud")
	assert.Equal(t, logrus.InfoLevel, levelFromEnv("LOG_LEVEL", logrus.InfoLevel))
}
