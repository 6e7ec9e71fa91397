package logging_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"msl/internal/logging"
)

func TestSetup_ParsesLevel(t *testing.T) {
	logging.Setup("debug")
	assert.Equal(t, logrus.DebugLevel, logging.Log.GetLevel())

	logging.Setup("nonsense")
	assert.Equal(t, logrus.InfoLevel, logging.Log.GetLevel())
}

func TestDebug_Toggles(t *testing.T) {
	logging.Debug(true)
	assert.Equal(t, logrus.DebugLevel, logging.Log.GetLevel())
	logging.Debug(false)
	assert.Equal(t, logrus.WarnLevel, logging.Log.GetLevel())
}
