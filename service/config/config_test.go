package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_KEY", "test-api-key")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/launchpad")
	t.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	t.Setenv("AGENT_WALLET_PRIVATE_KEY", "4wBqpZM9msxygzsdeLPM6zXEPs7C1Zpce8vYGpsp972v")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, 3.125, cfg.FundingAmountSOL)
	assert.Equal(t, uint64(3_125_000_000), cfg.FundingAmountLamports())
	assert.Equal(t, 2.5, cfg.DevBuyAmountSOL)
	assert.Equal(t, uint64(2_500_000_000), cfg.DevBuyAmountLamports())
	assert.Equal(t, 90*time.Second, cfg.ConfirmationTimeout)
	assert.Equal(t, "launchpad-token-launch", cfg.TemporalTaskQueue)
	assert.False(t, cfg.BuybackEnabled)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SOLANA_RPC_URL", "")
	t.Setenv("AGENT_WALLET_PRIVATE_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY is required")
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
	assert.Contains(t, err.Error(), "SOLANA_RPC_URL is required")
	assert.Contains(t, err.Error(), "AGENT_WALLET_PRIVATE_KEY is required")
}

func TestLoad_BuybackRequiresKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BUYBACK_ENABLED", "true")
	t.Setenv("BUYBACK_WALLET_PRIVATE_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUYBACK_WALLET_PRIVATE_KEY is required")
}

func TestLoad_BuybackEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BUYBACK_ENABLED", "true")
	t.Setenv("BUYBACK_WALLET_PRIVATE_KEY", "9hFvZ8mPqXw2nT5cR4yB7dK1jL6sA3gE8uWoV2xN4mQr")
	t.Setenv("BUYBACK_AMOUNT_SOL", "0.25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.BuybackEnabled)
	assert.Equal(t, 0.25, cfg.BuybackAmountSOL)
	assert.Equal(t, uint64(250_000_000), cfg.BuybackAmountLamports())
}

func TestLoad_InvalidFundingAmount(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FUNDING_AMOUNT_SOL", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FUNDING_AMOUNT_SOL")
}

func TestLoad_NegativeFundingAmount(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FUNDING_AMOUNT_SOL", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		APIKey:            "k",
		DatabaseURL:       "postgres://localhost/launchpad",
		SolanaRPCURL:      "https://api.mainnet-beta.solana.com",
		AgentWalletKey:    "key",
		FundingAmountSOL:  3.125,
		TemporalHost:      "localhost:7233",
		TemporalNamespace: "default",
		TemporalTaskQueue: "launchpad-token-launch",
	}
	require.NoError(t, cfg.Validate())

	cfg.AgentWalletKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AgentWalletKey is required")
}
