package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/solmint/launchpad/service/db"
	"github.com/solmint/launchpad/service/metrics"
	natspkg "github.com/solmint/launchpad/service/nats"
	"github.com/solmint/launchpad/service/pump"
	"github.com/solmint/launchpad/service/solana"
)

// FundWalletInput contains parameters for the FundWallet activity.
type FundWalletInput struct {
	WalletID string `json:"wallet_id"`
	Lamports uint64 `json:"lamports"`
}

// FundWalletResult contains the result of funding a stored wallet.
type FundWalletResult struct {
	Signature      string `json:"signature"`
	FundingWallet  string `json:"funding_wallet"`
	SpendPublicKey string `json:"spend_public_key"`
	MintPublicKey  string `json:"mint_public_key"`
}

// CreateTokenRecordInput contains parameters for the CreateTokenRecord activity.
// The record is created in the funded state: funding has already confirmed by
// the time this runs.
type CreateTokenRecordInput struct {
	Name             string  `json:"name"`
	Symbol           string  `json:"symbol"`
	Description      string  `json:"description"`
	ImageURL         string  `json:"image_url"`
	Twitter          *string `json:"twitter,omitempty"`
	Telegram         *string `json:"telegram,omitempty"`
	Website          *string `json:"website,omitempty"`
	WalletID         string  `json:"wallet_id"`
	FundingWallet    string  `json:"funding_wallet"`
	FundingSignature string  `json:"funding_signature"`
	SolAmount        float64 `json:"sol_amount"`
	TargetWallet     string  `json:"target_wallet"`
}

// CreateTokenRecordResult contains the created record's id.
type CreateTokenRecordResult struct {
	TokenID string `json:"token_id"`
}

// LaunchTokenInput contains parameters for the LaunchToken activity.
type LaunchTokenInput struct {
	WalletID       string  `json:"wallet_id"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	Description    string  `json:"description"`
	ImageURL       string  `json:"image_url"`
	Twitter        *string `json:"twitter,omitempty"`
	Telegram       *string `json:"telegram,omitempty"`
	Website        *string `json:"website,omitempty"`
	DevBuyLamports uint64  `json:"dev_buy_lamports"`
}

// LaunchTokenResult contains the result of the create-and-buy step.
type LaunchTokenResult struct {
	Signature     string `json:"signature"`
	MintPublicKey string `json:"mint_public_key"`
	TokenURL      string `json:"token_url"`
}

// BuybackTokenInput contains parameters for the BuybackToken activity.
type BuybackTokenInput struct {
	MintPublicKey string `json:"mint_public_key"`
	Lamports      uint64 `json:"lamports"`
}

// BuybackTokenResult contains the buy-back transaction signature.
type BuybackTokenResult struct {
	Signature string `json:"signature"`
}

// ProbePriceInput contains parameters for the ProbePrice activity.
type ProbePriceInput struct {
	MintPublicKey string `json:"mint_public_key"`
}

// ProbePriceResult contains the probed price, nil when unknown.
type ProbePriceResult struct {
	PriceSOL *float64 `json:"price_sol,omitempty"`
}

// FinalizeTokenRecordInput contains parameters for the FinalizeTokenRecord activity.
type FinalizeTokenRecordInput struct {
	TokenID         string   `json:"token_id"`
	MintPublicKey   string   `json:"mint_public_key"`
	CreateSignature string   `json:"create_signature"`
	TokenURL        string   `json:"token_url"`
	PriceSOL        *float64 `json:"price_sol,omitempty"`
}

// FinalizeTokenRecordResult contains the finalized record's status.
type FinalizeTokenRecordResult struct {
	TokenID string `json:"token_id"`
	Status  string `json:"status"`
}

// StoreInterface defines the database operations needed by activities.
// This allows for easy mocking in tests.
type StoreInterface interface {
	GetWallet(ctx context.Context, id string) (*db.Wallet, error)
	CreateToken(ctx context.Context, params db.CreateTokenParams) (*db.Token, error)
	UpdateTokenLaunch(ctx context.Context, id string, patch db.LaunchPatch) (*db.Token, error)
}

// FunderInterface defines the funding transfer operation needed by activities.
type FunderInterface interface {
	Transfer(ctx context.Context, params solana.TransferParams) (solanago.Signature, error)
}

// LaunchServiceInterface defines the pump.fun operations needed by activities.
type LaunchServiceInterface interface {
	Launch(ctx context.Context, params pump.LaunchParams) (*pump.LaunchResult, error)
	Buyback(ctx context.Context, params pump.BuybackParams) (string, error)
}

// PriceProberInterface defines the market price lookup needed by activities.
type PriceProberInterface interface {
	InitialPrice(ctx context.Context, mint string) *float64
}

// PublisherInterface defines the NATS publishing operations needed by activities.
type PublisherInterface interface {
	PublishLaunch(ctx context.Context, event *natspkg.TokenLaunchEvent) error
}

// Activities holds the dependencies needed by Temporal activities.
// All dependencies are explicit; activities carry their own bounded retry
// budgets internally, so Temporal-level activity retry stays disabled.
type Activities struct {
	store      StoreInterface
	funder     FunderInterface
	launcher   LaunchServiceInterface
	prober     PriceProberInterface
	publisher  PublisherInterface
	agentKey   solanago.PrivateKey
	buybackKey solanago.PrivateKey
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewActivities creates a new Activities instance with explicit dependencies.
// buybackKey may be zero-length when buy-back is disabled. If m is nil, no
// metrics will be recorded.
func NewActivities(
	store StoreInterface,
	funder FunderInterface,
	launcher LaunchServiceInterface,
	prober PriceProberInterface,
	publisher PublisherInterface,
	agentKey solanago.PrivateKey,
	buybackKey solanago.PrivateKey,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Activities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{
		store:      store,
		funder:     funder,
		launcher:   launcher,
		prober:     prober,
		publisher:  publisher,
		agentKey:   agentKey,
		buybackKey: buybackKey,
		metrics:    m,
		logger:     logger,
	}
}

func (a *Activities) recordDuration(activity string, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordActivityDuration(activity, time.Since(start).Seconds())
	}
}

// FundWallet moves the configured amount from the agent wallet to a stored
// wallet's spend account and waits for confirmation. A confirmation timeout
// surfaces as-is and must not trigger re-submission.
func (a *Activities) FundWallet(ctx context.Context, input FundWalletInput) (*FundWalletResult, error) {
	start := time.Now()
	defer a.recordDuration("FundWallet", start)

	wallet, err := a.store.GetWallet(ctx, input.WalletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet %q: %w", input.WalletID, err)
	}

	dest, err := solanago.PublicKeyFromBase58(wallet.SpendPublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid spend public key %q: %w", wallet.SpendPublicKey, err)
	}

	a.logger.InfoContext(ctx, "funding wallet",
		"wallet_id", input.WalletID,
		"destination", wallet.SpendPublicKey,
		"lamports", input.Lamports,
	)

	sig, err := a.funder.Transfer(ctx, solana.TransferParams{
		From:     a.agentKey,
		To:       dest,
		Lamports: input.Lamports,
	})
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordFundingTransfer("error", input.Lamports)
		}
		return nil, fmt.Errorf("funding transfer failed: %w", err)
	}
	if a.metrics != nil {
		a.metrics.RecordFundingTransfer("confirmed", input.Lamports)
	}

	a.logger.InfoContext(ctx, "wallet funded",
		"wallet_id", input.WalletID,
		"signature", sig.String(),
	)

	return &FundWalletResult{
		Signature:      sig.String(),
		FundingWallet:  a.agentKey.PublicKey().String(),
		SpendPublicKey: wallet.SpendPublicKey,
		MintPublicKey:  wallet.MintPublicKey,
	}, nil
}

// CreateTokenRecord persists the bookkeeping record for a funded launch.
func (a *Activities) CreateTokenRecord(ctx context.Context, input CreateTokenRecordInput) (*CreateTokenRecordResult, error) {
	start := time.Now()
	defer a.recordDuration("CreateTokenRecord", start)

	walletID := input.WalletID
	token, err := a.store.CreateToken(ctx, db.CreateTokenParams{
		Name:             input.Name,
		Symbol:           input.Symbol,
		Description:      input.Description,
		ImageURL:         input.ImageURL,
		Twitter:          input.Twitter,
		Telegram:         input.Telegram,
		Website:          input.Website,
		WalletID:         &walletID,
		FundingWallet:    input.FundingWallet,
		FundingSignature: input.FundingSignature,
		SolAmount:        input.SolAmount,
		TargetWallet:     input.TargetWallet,
		Status:           db.StatusFunded,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token record: %w", err)
	}

	a.logger.InfoContext(ctx, "token record created",
		"token_id", token.ID,
		"symbol", token.Symbol,
		"status", token.Status,
	)

	return &CreateTokenRecordResult{TokenID: token.ID}, nil
}

// LaunchToken reads back the stored keypairs and runs the create-and-buy step.
func (a *Activities) LaunchToken(ctx context.Context, input LaunchTokenInput) (*LaunchTokenResult, error) {
	start := time.Now()
	defer a.recordDuration("LaunchToken", start)

	wallet, err := a.store.GetWallet(ctx, input.WalletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet %q: %w", input.WalletID, err)
	}

	result, err := a.launcher.Launch(ctx, pump.LaunchParams{
		Creator: solanago.PrivateKey(wallet.SpendSecretKey),
		Mint:    solanago.PrivateKey(wallet.MintSecretKey),
		Metadata: pump.TokenMetadata{
			Name:        input.Name,
			Symbol:      input.Symbol,
			Description: input.Description,
			ImageURL:    input.ImageURL,
			Twitter:     input.Twitter,
			Telegram:    input.Telegram,
			Website:     input.Website,
		},
		DevBuyLamports: input.DevBuyLamports,
	})
	if err != nil {
		return nil, err
	}

	return &LaunchTokenResult{
		Signature:     result.Signature,
		MintPublicKey: result.MintPublicKey,
		TokenURL:      result.TokenURL,
	}, nil
}

// BuybackToken performs the secondary purchase from the buy-back wallet.
func (a *Activities) BuybackToken(ctx context.Context, input BuybackTokenInput) (*BuybackTokenResult, error) {
	start := time.Now()
	defer a.recordDuration("BuybackToken", start)

	if len(a.buybackKey) == 0 {
		return nil, fmt.Errorf("buy-back requested but no buy-back key is configured")
	}

	mint, err := solanago.PublicKeyFromBase58(input.MintPublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid mint public key %q: %w", input.MintPublicKey, err)
	}

	sig, err := a.launcher.Buyback(ctx, pump.BuybackParams{
		Buyer:    a.buybackKey,
		Mint:     mint,
		Lamports: input.Lamports,
	})
	if err != nil {
		return nil, err
	}

	return &BuybackTokenResult{Signature: sig}, nil
}

// ProbePrice looks up the initial market price. A price is never required:
// this activity returns a nil price instead of an error when nothing is found.
func (a *Activities) ProbePrice(ctx context.Context, input ProbePriceInput) (*ProbePriceResult, error) {
	start := time.Now()
	defer a.recordDuration("ProbePrice", start)

	price := a.prober.InitialPrice(ctx, input.MintPublicKey)
	if a.metrics != nil {
		status := "found"
		if price == nil {
			status = "unknown"
		}
		a.metrics.RecordPriceProbe(status)
	}

	return &ProbePriceResult{PriceSOL: price}, nil
}

// FinalizeTokenRecord attaches the token URL and optional price to the record
// and publishes the launch event. Publishing is best-effort: a NATS failure is
// logged, never surfaced, because the record update already landed.
func (a *Activities) FinalizeTokenRecord(ctx context.Context, input FinalizeTokenRecordInput) (*FinalizeTokenRecordResult, error) {
	start := time.Now()
	defer a.recordDuration("FinalizeTokenRecord", start)

	token, err := a.store.UpdateTokenLaunch(ctx, input.TokenID, db.LaunchPatch{
		TokenURL:        input.TokenURL,
		InitialPriceSOL: input.PriceSOL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize token record %q: %w", input.TokenID, err)
	}

	a.logger.InfoContext(ctx, "token record finalized",
		"token_id", token.ID,
		"status", token.Status,
		"token_url", input.TokenURL,
	)

	if a.publisher != nil {
		event := natspkg.FromDBToken(token, input.MintPublicKey, input.CreateSignature)
		if err := a.publisher.PublishLaunch(ctx, event); err != nil {
			a.logger.ErrorContext(ctx, "failed to publish launch event",
				"token_id", token.ID,
				"mint", input.MintPublicKey,
				"error", err,
			)
		}
	}

	return &FinalizeTokenRecordResult{
		TokenID: token.ID,
		Status:  token.Status,
	}, nil
}
