package agentauth

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_JSONFormatterByDefault(t *testing.T) {
	logger := NewLogger("info", "json")
	_, ok := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
	assert.Equal(t, logrus.InfoLevel, logger.Level)
}

func TestNewLogger_TextFormatterWhenRequested(t *testing.T) {
	logger := NewLogger("debug", "text")
	_, ok := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
	assert.Equal(t, logrus.DebugLevel, logger.Level)
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger := NewLogger("not-a-level", "json")
	assert.Equal(t, logrus.InfoLevel, logger.Level)
}

func TestEntry_HasComponentField(t *testing.T) {
	logger := NewLogger("info", "json")
	e := entry(logger)
	assert.Equal(t, "agentauth", e.Data["component"])
}
