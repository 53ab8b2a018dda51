package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TokenLaunchInput contains input for the token launch workflow.
type TokenLaunchInput struct {
	WalletID string `json:"wallet_id"`

	// Token metadata
	TokenName        string  `json:"token_name"`
	TokenSymbol      string  `json:"token_symbol"`
	TokenDescription string  `json:"token_description"`
	ImageURL         string  `json:"image_url"`
	Twitter          *string `json:"twitter,omitempty"`
	Telegram         *string `json:"telegram,omitempty"`
	Website          *string `json:"website,omitempty"`

	// TargetWallet is the bookkeeping destination; defaults to the stored
	// wallet's spend public key when empty.
	TargetWallet string `json:"target_wallet"`

	// Amounts
	FundingLamports uint64 `json:"funding_lamports"`
	DevBuyLamports  uint64 `json:"dev_buy_lamports"`

	// Buy-back capability flag
	Buyback         bool   `json:"buyback"`
	BuybackLamports uint64 `json:"buyback_lamports"`
}

// TokenLaunchResult contains the result of a token launch workflow.
type TokenLaunchResult struct {
	TokenID          string   `json:"token_id"`
	TokenURL         string   `json:"token_url"`
	MintPublicKey    string   `json:"mint_public_key"`
	FundingSignature string   `json:"funding_signature"`
	CreateSignature  string   `json:"create_signature"`
	BuybackSignature *string  `json:"buyback_signature,omitempty"`
	InitialPriceSOL  *float64 `json:"initial_price_sol,omitempty"`
	Status           string   `json:"status"` // "completed", "failed"
	Error            *string  `json:"error,omitempty"`
}

// TokenLaunchWorkflow orchestrates one token launch:
// 1. Fund the stored spend keypair from the agent wallet (must confirm first)
// 2. Create the bookkeeping record in the funded state
// 3. Create the token with its initial buy
// 4. Optionally buy back from the secondary wallet
// 5. Probe the initial market price (non-fatal)
// 6. Finalize the record and publish the launch event
//
// Each activity owns its bounded retry budget, so Temporal-level retries are
// capped at a single attempt. On-chain steps are irreversible: a failure after
// the mint still finalizes the record rather than rolling anything back.
func TokenLaunchWorkflow(ctx workflow.Context, input TokenLaunchInput) (*TokenLaunchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("TokenLaunchWorkflow started",
		"wallet_id", input.WalletID,
		"symbol", input.TokenSymbol,
		"buyback", input.Buyback,
	)

	result := &TokenLaunchResult{}

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1, // activities retry internally
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	// Step 1: Fund the wallet. Minting reads a balance that depends on this
	// transaction having landed, so confirmation gates everything after it.
	var fund *FundWalletResult
	err := workflow.ExecuteActivity(ctx, "FundWallet", FundWalletInput{
		WalletID: input.WalletID,
		Lamports: input.FundingLamports,
	}).Get(ctx, &fund)
	if err != nil {
		logger.Error("funding failed", "error", err)
		return failLaunch(result, fmt.Errorf("funding failed: %w", err))
	}
	result.FundingSignature = fund.Signature

	targetWallet := input.TargetWallet
	if targetWallet == "" {
		targetWallet = fund.SpendPublicKey
	}

	// Step 2: Create the bookkeeping record now that funding is confirmed.
	var record *CreateTokenRecordResult
	err = workflow.ExecuteActivity(ctx, "CreateTokenRecord", CreateTokenRecordInput{
		Name:             input.TokenName,
		Symbol:           input.TokenSymbol,
		Description:      input.TokenDescription,
		ImageURL:         input.ImageURL,
		Twitter:          input.Twitter,
		Telegram:         input.Telegram,
		Website:          input.Website,
		WalletID:         input.WalletID,
		FundingWallet:    fund.FundingWallet,
		FundingSignature: fund.Signature,
		SolAmount:        float64(input.FundingLamports) / 1e9,
		TargetWallet:     targetWallet,
	}).Get(ctx, &record)
	if err != nil {
		logger.Error("token record creation failed", "error", err)
		return failLaunch(result, fmt.Errorf("token record creation failed: %w", err))
	}
	result.TokenID = record.TokenID

	// Step 3: Create the token. If this exhausts its retries the record stays
	// funded forever; reconciliation is external.
	var launch *LaunchTokenResult
	err = workflow.ExecuteActivity(ctx, "LaunchToken", LaunchTokenInput{
		WalletID:       input.WalletID,
		Name:           input.TokenName,
		Symbol:         input.TokenSymbol,
		Description:    input.TokenDescription,
		ImageURL:       input.ImageURL,
		Twitter:        input.Twitter,
		Telegram:       input.Telegram,
		Website:        input.Website,
		DevBuyLamports: input.DevBuyLamports,
	}).Get(ctx, &launch)
	if err != nil {
		logger.Error("token creation failed", "error", err)
		return failLaunch(result, fmt.Errorf("token creation failed: %w", err))
	}
	result.CreateSignature = launch.Signature
	result.MintPublicKey = launch.MintPublicKey
	result.TokenURL = launch.TokenURL

	// Step 4: Optional buy-back. The token exists on chain regardless of the
	// outcome here, so a failure is recorded but never aborts finalization.
	if input.Buyback {
		var buyback *BuybackTokenResult
		err = workflow.ExecuteActivity(ctx, "BuybackToken", BuybackTokenInput{
			MintPublicKey: launch.MintPublicKey,
			Lamports:      input.BuybackLamports,
		}).Get(ctx, &buyback)
		if err != nil {
			logger.Error("buy-back failed", "mint", launch.MintPublicKey, "error", err)
			errMsg := fmt.Sprintf("buy-back failed: %v", err)
			result.Error = &errMsg
		} else {
			result.BuybackSignature = &buyback.Signature
		}
	}

	// Step 5: Price probe, strictly best-effort.
	var probe *ProbePriceResult
	err = workflow.ExecuteActivity(ctx, "ProbePrice", ProbePriceInput{
		MintPublicKey: launch.MintPublicKey,
	}).Get(ctx, &probe)
	if err != nil {
		logger.Warn("price probe failed", "mint", launch.MintPublicKey, "error", err)
		probe = &ProbePriceResult{}
	}
	result.InitialPriceSOL = probe.PriceSOL

	// Step 6: Finalize the record with whatever we learned.
	var finalized *FinalizeTokenRecordResult
	err = workflow.ExecuteActivity(ctx, "FinalizeTokenRecord", FinalizeTokenRecordInput{
		TokenID:         record.TokenID,
		MintPublicKey:   launch.MintPublicKey,
		CreateSignature: launch.Signature,
		TokenURL:        launch.TokenURL,
		PriceSOL:        probe.PriceSOL,
	}).Get(ctx, &finalized)
	if err != nil {
		// The mint already happened; report the token URL alongside the error.
		logger.Error("finalization failed", "token_id", record.TokenID, "error", err)
		return failLaunch(result, fmt.Errorf("finalization failed: %w", err))
	}

	result.Status = "completed"

	logger.Info("TokenLaunchWorkflow completed",
		"token_id", result.TokenID,
		"mint", result.MintPublicKey,
		"token_url", result.TokenURL,
		"priced", result.InitialPriceSOL != nil,
	)

	return result, nil
}

func failLaunch(result *TokenLaunchResult, err error) (*TokenLaunchResult, error) {
	msg := err.Error()
	result.Status = "failed"
	result.Error = &msg
	return result, err
}
