package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "skipping answer",
		Data:    logrus.Fields{"title": "Provincia", "index": 2},
	}

	out, err := (&CustomFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2025-03-03 09:30:00] [WARN] [] skipping answer index=2 title=Provincia\n", string(out))
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "visit.log")
	require.NoError(t, InitLogger("debug", path))

	Log.Debug("hola")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBU]")
	assert.Contains(t, string(data), "logger_test.go")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
}
