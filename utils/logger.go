package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Diisi default supaya service tetap bisa log sebelum InitLogger dipanggil (misalnya di test).
var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

func InitLogger() {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	// Set output untuk InfoLogger ke stdout
	InfoLogger.SetOutput(os.Stdout)
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Set output untuk ErrorLogger ke stderr
	ErrorLogger.SetOutput(os.Stderr)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	InfoLogger.SetLevel(levelFromEnv("LOG_LEVEL", logrus.InfoLevel))
	// Warn ikut ditulis: service memakai ErrorLogger untuk kegagalan yang tidak fatal.
	ErrorLogger.SetLevel(logrus.WarnLevel)

	// pricing package logs through the standard logger
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.WarnLevel)
}

func levelFromEnv(key string, def logrus.Level) logrus.Level {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	lvl, err := logrus.ParseLevel(raw)
	if err != nil {
		return def
	}
	return lvl
}
