package pump

import (
	"context"
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

var (
	// ErrLaunchFailed is returned after the create-and-buy retry budget is
	// exhausted. The wrapped error is the last attempt's failure.
	ErrLaunchFailed = errors.New("token launch failed")

	// ErrBuybackFailed is returned after the buy-back retry budget is
	// exhausted. The token itself already exists on chain at this point.
	ErrBuybackFailed = errors.New("buy-back failed")
)

// TokenMetadata is the user-supplied token description.
type TokenMetadata struct {
	Name        string
	Symbol      string
	Description string
	ImageURL    string
	Twitter     *string
	Telegram    *string
	Website     *string
}

// LaunchParams describes one create-and-initial-buy operation.
type LaunchParams struct {
	// Creator signs the create transaction, pays the fee, and performs the
	// initial dev buy. This is the funded spend keypair.
	Creator solanago.PrivateKey

	// Mint is the stored mint keypair that becomes the token's identity.
	Mint solanago.PrivateKey

	Metadata TokenMetadata

	// MetadataURI points at the off-chain metadata JSON. When empty, the
	// image URL is used directly (metadata upload is handled upstream).
	MetadataURI string

	// DevBuyLamports is the size of the initial buy bundled with creation.
	DevBuyLamports uint64
}

// LaunchResult is the outcome of a successful create-and-buy.
type LaunchResult struct {
	Signature     string
	MintPublicKey string
	TokenURL      string
}

// BuybackParams describes the secondary purchase from a separately funded keypair.
type BuybackParams struct {
	Buyer    solanago.PrivateKey
	Mint     solanago.PublicKey
	Lamports uint64
}

// Launcher executes single pump.fun operations. Implementations do not retry;
// bounded retries live in Service so the policy is uniform and testable.
type Launcher interface {
	CreateAndBuy(ctx context.Context, params LaunchParams) (*LaunchResult, error)
	Buy(ctx context.Context, params BuybackParams) (string, error)
}

// TokenURL derives the public token page from a mint public key.
func TokenURL(mintPublicKey string) string {
	return fmt.Sprintf("https://pump.fun/%s", mintPublicKey)
}
