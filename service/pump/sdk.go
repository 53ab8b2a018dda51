package pump

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/ninja0404/pump-go-sdk/pkg/autofill"
	sdkconfig "github.com/ninja0404/pump-go-sdk/pkg/config"
	sdkrpc "github.com/ninja0404/pump-go-sdk/pkg/rpc"
	"github.com/ninja0404/pump-go-sdk/pkg/txbuilder"
	"github.com/ninja0404/pump-go-sdk/pkg/wallet"
)

// defaultSlippageBps bounds how far the buy price may move before the
// transaction is rejected.
const defaultSlippageBps = 500

// SDKLauncher drives the pump.fun SDK. Each call is a single attempt;
// Service owns the retry policy.
type SDKLauncher struct {
	rpc         *sdkrpc.Client
	builder     *txbuilder.Builder
	slippageBps uint64
	logger      *slog.Logger
}

// NewSDKLauncher creates a launcher backed by the given RPC endpoint.
func NewSDKLauncher(rpcURL string, logger *slog.Logger) *SDKLauncher {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := sdkconfig.DefaultRPCConfig()
	cfg.RPCURL = rpcURL
	cfg.Timeout = 30 * time.Second
	client := sdkrpc.NewClient(cfg)

	return &SDKLauncher{
		rpc:         client,
		builder:     txbuilder.NewBuilder(client, rpc.CommitmentConfirmed),
		slippageBps: defaultSlippageBps,
		logger:      logger,
	}
}

// CreateAndBuy builds the create instruction plus the initial dev buy and
// submits them as one transaction signed by the creator and the mint keypair.
func (l *SDKLauncher) CreateAndBuy(ctx context.Context, params LaunchParams) (*LaunchResult, error) {
	signer := wallet.NewLocalFromPrivateKey(params.Creator)
	mintSigner := wallet.NewLocalFromPrivateKey(params.Mint)
	user := signer.PublicKey()

	uri := params.MetadataURI
	if uri == "" {
		uri = params.Metadata.ImageURL
	}

	// The stored mint keypair becomes the token's identity, so the launch
	// URL is known before the transaction lands.
	mintKey := params.Mint
	_, args, createIx, err := autofill.PumpCreateWithMint(
		ctx, l.rpc, user, mintKey,
		params.Metadata.Name, params.Metadata.Symbol, uri,
	)
	if err != nil {
		return nil, fmt.Errorf("build create instruction: %w", err)
	}

	_, _, buyIx, err := autofill.PumpBuy(
		ctx, l.rpc, user,
		mintKey.PublicKey(), params.DevBuyLamports, l.slippageBps,
	)
	if err != nil {
		return nil, fmt.Errorf("build buy instruction: %w", err)
	}

	l.logger.DebugContext(ctx, "submitting create-and-buy transaction",
		"name", args.Name,
		"symbol", args.Symbol,
		"mint", mintKey.PublicKey().String(),
		"dev_buy_lamports", params.DevBuyLamports,
	)

	sig, err := l.builder.BuildSignSendAndConfirm(
		ctx,
		signer,
		[]wallet.Signer{mintSigner},
		txbuilder.ConfirmationConfirmed,
		append([]solana.Instruction{createIx}, buyIx...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("send create-and-buy transaction: %w", err)
	}
	if sig.IsZero() {
		// The SDK reported no error but produced no signature.
		return nil, fmt.Errorf("create-and-buy returned no signature")
	}

	mint := mintKey.PublicKey().String()
	return &LaunchResult{
		Signature:     sig.String(),
		MintPublicKey: mint,
		TokenURL:      TokenURL(mint),
	}, nil
}

// Buy performs a standalone purchase of an existing token, used for the
// post-creation buy-back from a second funded keypair.
func (l *SDKLauncher) Buy(ctx context.Context, params BuybackParams) (string, error) {
	signer := wallet.NewLocalFromPrivateKey(params.Buyer)
	user := signer.PublicKey()

	_, _, buyIx, err := autofill.PumpBuy(
		ctx, l.rpc, user,
		params.Mint, params.Lamports, l.slippageBps,
	)
	if err != nil {
		return "", fmt.Errorf("build buy instruction: %w", err)
	}

	sig, err := l.builder.BuildSignSendAndConfirm(
		ctx,
		signer,
		nil,
		txbuilder.ConfirmationConfirmed,
		buyIx...,
	)
	if err != nil {
		return "", fmt.Errorf("send buy transaction: %w", err)
	}
	if sig.IsZero() {
		return "", fmt.Errorf("buy returned no signature")
	}

	return sig.String(), nil
}
