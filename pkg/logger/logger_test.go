package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitializeSwapsSingleton(t *testing.T) {
	before := Get()
	assert.NotNil(t, before)

	Initialize(true)
	after := Get()
	assert.NotNil(t, after)
}

func TestInitializeWithEnvDefaultsToUnstructured(t *testing.T) {
	t.Setenv("OPSCORE_UNSTRUCTURED_LOGS", "")
	InitializeWithEnv()
	assert.NotNil(t, Get())
}

func TestInitializeWithEnvStructured(t *testing.T) {
	t.Setenv("OPSCORE_UNSTRUCTURED_LOGS", "false")
	InitializeWithEnv()
	assert.NotNil(t, Get())
}

func TestLoggingHelpersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug("debug")
		Debugf("debug %d", 1)
		Debugw("debug", "k", "v")
		Info("info")
		Infof("info %d", 1)
		Infow("info", "k", "v")
		Warn("warn")
		Warnf("warn %d", 1)
		Warnw("warn", "k", "v")
		Error("error")
		Errorf("error %d", 1)
		Errorw("error", "k", "v")
		Sync()
	})
}
