package pump

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmint/launchpad/service/retry"
)

// fakeLauncher scripts per-attempt outcomes.
type fakeLauncher struct {
	createErrs  []error // consumed per call; nil entry means success
	createCalls int
	buyErrs     []error
	buyCalls    int
}

func (f *fakeLauncher) CreateAndBuy(ctx context.Context, params LaunchParams) (*LaunchResult, error) {
	defer func() { f.createCalls++ }()
	if f.createCalls < len(f.createErrs) {
		if err := f.createErrs[f.createCalls]; err != nil {
			return nil, err
		}
	}
	mint := params.Mint.PublicKey().String()
	return &LaunchResult{
		Signature:     "CreateSig111",
		MintPublicKey: mint,
		TokenURL:      TokenURL(mint),
	}, nil
}

func (f *fakeLauncher) Buy(ctx context.Context, params BuybackParams) (string, error) {
	defer func() { f.buyCalls++ }()
	if f.buyCalls < len(f.buyErrs) {
		if err := f.buyErrs[f.buyCalls]; err != nil {
			return "", err
		}
	}
	return "BuySig111", nil
}

func newTestService(t *testing.T, launcher Launcher) *Service {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewService(launcher, nil, logger)
	// Same attempt budget, millisecond delays so tests run fast.
	s.policy = retry.Policy{MaxAttempts: maxRetries, Backoff: retry.Fixed(time.Millisecond)}
	return s
}

func testLaunchParams(t *testing.T) LaunchParams {
	t.Helper()
	creator, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	mint, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	return LaunchParams{
		Creator:        creator,
		Mint:           mint,
		Metadata:       TokenMetadata{Name: "Test Token", Symbol: "TT"},
		DevBuyLamports: 500_000_000,
	}
}

func TestLaunch_SucceedsOnThirdAttempt(t *testing.T) {
	transient := errors.New("sdk: blockhash expired")
	launcher := &fakeLauncher{createErrs: []error{transient, transient, nil}}
	svc := newTestService(t, launcher)

	result, err := svc.Launch(context.Background(), testLaunchParams(t))
	require.NoError(t, err)
	assert.Equal(t, 3, launcher.createCalls)
	assert.Equal(t, "CreateSig111", result.Signature)
	assert.Contains(t, result.TokenURL, "https://pump.fun/")
}

func TestLaunch_ExhaustsRetriesAndSurfacesLastError(t *testing.T) {
	last := errors.New("sdk: simulation failed")
	launcher := &fakeLauncher{createErrs: []error{
		errors.New("first"), errors.New("second"), last,
	}}
	svc := newTestService(t, launcher)

	_, err := svc.Launch(context.Background(), testLaunchParams(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLaunchFailed)
	assert.Contains(t, err.Error(), "simulation failed")
	// Never more than the attempt budget.
	assert.Equal(t, 3, launcher.createCalls)
}

func TestLaunch_FirstAttemptSuccess(t *testing.T) {
	launcher := &fakeLauncher{}
	svc := newTestService(t, launcher)

	_, err := svc.Launch(context.Background(), testLaunchParams(t))
	require.NoError(t, err)
	assert.Equal(t, 1, launcher.createCalls)
}

func TestBuyback_RetriesThenSucceeds(t *testing.T) {
	launcher := &fakeLauncher{buyErrs: []error{errors.New("transient"), nil}}
	svc := newTestService(t, launcher)

	buyer, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	mint, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)

	sig, err := svc.Buyback(context.Background(), BuybackParams{
		Buyer:    buyer,
		Mint:     mint.PublicKey(),
		Lamports: 250_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "BuySig111", sig)
	assert.Equal(t, 2, launcher.buyCalls)
}

func TestBuyback_Exhausted(t *testing.T) {
	boom := errors.New("boom")
	launcher := &fakeLauncher{buyErrs: []error{boom, boom, boom}}
	svc := newTestService(t, launcher)

	buyer, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)

	_, err = svc.Buyback(context.Background(), BuybackParams{
		Buyer:    buyer,
		Mint:     buyer.PublicKey(),
		Lamports: 1,
	})
	assert.ErrorIs(t, err, ErrBuybackFailed)
	assert.Equal(t, 3, launcher.buyCalls)
}

func TestTokenURL(t *testing.T) {
	assert.Equal(t, "https://pump.fun/Mint111", TokenURL("Mint111"))
}
