package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	result := Default().Validate()
	assert.True(t, result.Valid(), "expected defaults to validate, got %v", result.Errors)
}

func TestLoadAppliesFlagsOverDefaults(t *testing.T) {
	cfg, err := Load([]string{"--port", "9090", "--host", "0.0.0.0", "--log-level", "debug"})
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadAppliesEnvVars(t *testing.T) {
	t.Setenv("WORKFLOWD_PORT", "9191")
	t.Setenv("WORKFLOWD_LOG_LEVEL", "warn")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFlagsOverrideEnvVars(t *testing.T) {
	t.Setenv("WORKFLOWD_PORT", "9191")

	cfg, err := Load([]string{"--port", "7070"})
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port, "expected the flag to win over the env var")
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	_, err := Load([]string{"--port", "0"})
	require.Error(t, err)
	assert.IsType(t, &ValidationErr{}, err)
}

func TestValidateRejectsEmptyFields(t *testing.T) {
	cfg := Default()
	cfg.DBPath = ""
	cfg.DataRoot = ""
	cfg.Host = ""
	cfg.LogLevel = "verbose"

	result := cfg.Validate()
	assert.False(t, result.Valid())
	assert.Len(t, result.Errors, 4)
}

func TestValidationResultErrorJoinsMessages(t *testing.T) {
	cfg := Default()
	cfg.Port = -1
	result := cfg.Validate()
	assert.NotEmpty(t, result.Error())
}
