package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewAppliesDefaultsWhenEnvEmpty is responsible to test that New
// fills in every documented default when no environment variables are
// set
func TestNewAppliesDefaultsWhenEnvEmpty(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.ServerAddress)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, "reserve_core", cfg.MongoDatabase)
	assert.Equal(t, "payments", cfg.RabbitMQExchange)
	assert.Equal(t, "payments.webhooks", cfg.RabbitMQQueue)
	assert.Equal(t, "payment.event", cfg.RabbitMQKey)
	assert.Equal(t, int64(300), cfg.HoldTimeoutSeconds)
	assert.Equal(t, int64(10), cfg.SweepIntervalSeconds)
	assert.Equal(t, int64(30), cfg.SweepGraceSeconds)
	assert.Equal(t, int64(200), cfg.SweepBatchLimit)
	assert.Equal(t, int64(100), cfg.GoodieSupply)
	assert.Equal(t, int64(30), cfg.RateLimitPerMinute)
}

// TestSetFromEnvVarsOnlySetsPresentVars is responsible to test that an
// env var absent from the environment leaves its field at zero value,
// so applyDefaults can tell "unset" from "set to zero"
func TestSetFromEnvVarsOnlySetsPresentVars(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9999")

	cfg := &Config{}
	require.NoError(t, setFromEnvVars(cfg))

	assert.Equal(t, ":9999", cfg.ServerAddress)
	assert.Equal(t, "", cfg.LogLevel, "LOG_LEVEL was never set, so it must stay zero-valued pre-defaults")
}

// TestSetFromEnvVarsParsesIntegers is responsible to test that int64
// fields are parsed from their string env var representation
func TestSetFromEnvVarsParsesIntegers(t *testing.T) {
	t.Setenv("HOLD_TIMEOUT_SECONDS", "45")
	t.Setenv("GOODIE_SUPPLY", "7")

	cfg := &Config{}
	require.NoError(t, setFromEnvVars(cfg))

	assert.Equal(t, int64(45), cfg.HoldTimeoutSeconds)
	assert.Equal(t, int64(7), cfg.GoodieSupply)
}

// TestSetFromEnvVarsRejectsUnparsableInt is responsible to test that a
// malformed integer env var surfaces an error instead of silently
// zeroing the field
func TestSetFromEnvVarsRejectsUnparsableInt(t *testing.T) {
	t.Setenv("HOLD_TIMEOUT_SECONDS", "not-a-number")

	cfg := &Config{}
	assert.Error(t, setFromEnvVars(cfg))
}

// TestNewReadsExplicitEnvOverDefault is responsible to test that an
// explicitly set env var survives applyDefaults unchanged
func TestNewReadsExplicitEnvOverDefault(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, int64(5), cfg.RateLimitPerMinute)
}
