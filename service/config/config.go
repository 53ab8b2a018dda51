package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// API authentication
	APIKey string

	// Database configuration
	DatabaseURL string

	// NATS configuration
	NATSURL string

	// Solana configuration
	SolanaRPCURL string

	// Agent wallet that funds freshly generated spend keypairs.
	// Base58-encoded private key.
	AgentWalletKey string

	// Buy-back wallet used for the secondary purchase after creation.
	// Required only when BuybackEnabled is true.
	BuybackWalletKey string
	BuybackEnabled   bool

	// Funding configuration. DevBuyAmountSOL is the portion of the funded
	// amount spent on the initial buy bundled with token creation; the
	// remainder covers fees and rent.
	FundingAmountSOL float64
	DevBuyAmountSOL  float64
	BuybackAmountSOL float64

	// ConfirmationTimeout bounds how long we wait for a submitted
	// transaction to confirm before surfacing an ambiguous failure.
	ConfirmationTimeout time.Duration

	// Temporal configuration
	TemporalHost      string
	TemporalNamespace string
	TemporalTaskQueue string
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// API authentication
	cfg.APIKey = os.Getenv("API_KEY")
	if cfg.APIKey == "" {
		errs = append(errs, fmt.Errorf("API_KEY is required"))
	}

	// Database configuration
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required"))
	}

	// NATS configuration
	cfg.NATSURL = getEnvOrDefault("NATS_URL", "nats://localhost:4222")

	// Solana configuration
	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	if cfg.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required"))
	}

	cfg.AgentWalletKey = os.Getenv("AGENT_WALLET_PRIVATE_KEY")
	if cfg.AgentWalletKey == "" {
		errs = append(errs, fmt.Errorf("AGENT_WALLET_PRIVATE_KEY is required"))
	}

	// Buy-back configuration
	buybackEnabled, err := parseBool("BUYBACK_ENABLED", false)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.BuybackEnabled = buybackEnabled

	cfg.BuybackWalletKey = os.Getenv("BUYBACK_WALLET_PRIVATE_KEY")
	if cfg.BuybackEnabled && cfg.BuybackWalletKey == "" {
		errs = append(errs, fmt.Errorf("BUYBACK_WALLET_PRIVATE_KEY is required when BUYBACK_ENABLED=true"))
	}

	// Funding configuration
	fundingAmount, err := parseFloat("FUNDING_AMOUNT_SOL", 3.125)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.FundingAmountSOL = fundingAmount

	devBuyAmount, err := parseFloat("DEV_BUY_AMOUNT_SOL", 2.5)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.DevBuyAmountSOL = devBuyAmount

	buybackAmount, err := parseFloat("BUYBACK_AMOUNT_SOL", 0.5)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.BuybackAmountSOL = buybackAmount

	confirmTimeout, err := parseDuration("CONFIRMATION_TIMEOUT", "90s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmationTimeout = confirmTimeout
	}

	// Temporal configuration
	cfg.TemporalHost = getEnvOrDefault("TEMPORAL_HOST", "localhost:7233")
	cfg.TemporalNamespace = getEnvOrDefault("TEMPORAL_NAMESPACE", "default")
	cfg.TemporalTaskQueue = getEnvOrDefault("TEMPORAL_TASK_QUEUE", "launchpad-token-launch")

	if cfg.FundingAmountSOL <= 0 {
		errs = append(errs, fmt.Errorf("FUNDING_AMOUNT_SOL must be positive, got %v", cfg.FundingAmountSOL))
	}

	if cfg.DevBuyAmountSOL <= 0 || cfg.DevBuyAmountSOL >= cfg.FundingAmountSOL {
		errs = append(errs, fmt.Errorf("DEV_BUY_AMOUNT_SOL must be positive and below FUNDING_AMOUNT_SOL, got %v", cfg.DevBuyAmountSOL))
	}

	if cfg.BuybackEnabled && cfg.BuybackAmountSOL <= 0 {
		errs = append(errs, fmt.Errorf("BUYBACK_AMOUNT_SOL must be positive when BUYBACK_ENABLED=true, got %v", cfg.BuybackAmountSOL))
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// FundingAmountLamports returns the configured funding amount in lamports.
func (c *Config) FundingAmountLamports() uint64 {
	return uint64(c.FundingAmountSOL * LamportsPerSOL)
}

// DevBuyAmountLamports returns the configured initial-buy amount in lamports.
func (c *Config) DevBuyAmountLamports() uint64 {
	return uint64(c.DevBuyAmountSOL * LamportsPerSOL)
}

// BuybackAmountLamports returns the configured buy-back amount in lamports.
func (c *Config) BuybackAmountLamports() uint64 {
	return uint64(c.BuybackAmountSOL * LamportsPerSOL)
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("APIKey is required"))
	}

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DatabaseURL is required"))
	}

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if c.AgentWalletKey == "" {
		errs = append(errs, fmt.Errorf("AgentWalletKey is required"))
	}

	if c.BuybackEnabled && c.BuybackWalletKey == "" {
		errs = append(errs, fmt.Errorf("BuybackWalletKey is required when buy-back is enabled"))
	}

	if c.FundingAmountSOL <= 0 {
		errs = append(errs, fmt.Errorf("FundingAmountSOL must be positive"))
	}

	if c.TemporalHost == "" {
		errs = append(errs, fmt.Errorf("TemporalHost is required"))
	}

	if c.TemporalNamespace == "" {
		errs = append(errs, fmt.Errorf("TemporalNamespace is required"))
	}

	if c.TemporalTaskQueue == "" {
		errs = append(errs, fmt.Errorf("TemporalTaskQueue is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseFloat parses a float from an environment variable or uses a default.
func parseFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, value, err)
	}
	return result, nil
}

// parseBool parses a boolean from an environment variable or uses a default.
func parseBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, value, err)
	}
	return result, nil
}
