package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("nonexistent")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "transactions.posted", cfg.Kafka.PostedTopic)
	assert.Equal(t, "1000.00", cfg.Ledger.OpeningBalance)
	assert.Equal(t, "USD", cfg.Ledger.DefaultCurrency)
	assert.Equal(t, 10, cfg.Archiver.WorkerPoolSize)
	assert.Equal(t, 5, cfg.Outbox.MaxRetryAttempts)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("LEDGER_OPENING_BALANCE", "500.00")

	cfg, err := LoadConfig("nonexistent")

	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "500.00", cfg.Ledger.OpeningBalance)
}

func TestConfig_Validate(t *testing.T) {
	cfg, err := LoadConfig("nonexistent")
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Kafka.PostedTopic = ""

	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "KAFKA_POSTED_TOPIC")
}
