package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWallet_Roundtrip(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	created, err := store.CreateWallet(ctx, CreateWalletParams{
		SpendPublicKey: "SpendPubKey1111111111111111111111111111111",
		MintPublicKey:  "MintPubKey11111111111111111111111111111111",
		SpendSecretKey: []byte{1, 2, 3, 4},
		MintSecretKey:  []byte{5, 6, 7, 8},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	// Lookup by id must return the same record.
	byID, err := store.GetWallet(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SpendPublicKey, byID.SpendPublicKey)
	assert.Equal(t, created.MintPublicKey, byID.MintPublicKey)
	assert.Equal(t, []byte{1, 2, 3, 4}, byID.SpendSecretKey)

	// Lookup by spend public key must return the same record.
	byKey, err := store.GetWalletByPublicKey(ctx, created.SpendPublicKey)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byKey.ID)
}

func TestGetWallet_NotFound(t *testing.T) {
	store := NewTestStore(t)

	_, err := store.GetWallet(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateToken_RequiresTargetWallet(t *testing.T) {
	store := NewTestStore(t)

	_, err := store.CreateToken(context.Background(), CreateTokenParams{
		Name:   "Test Token",
		Symbol: "TT",
	})
	assert.ErrorIs(t, err, ErrMissingTargetWallet)
}

func TestCreateToken_DefaultsToDraft(t *testing.T) {
	store := NewTestStore(t)

	token, err := store.CreateToken(context.Background(), CreateTokenParams{
		Name:         "Test Token",
		Symbol:       "TT",
		TargetWallet: "TargetWa11et111111111111111111111111111111",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, token.Status)
	assert.Nil(t, token.TokenURL)
	assert.Nil(t, token.InitialPriceSOL)
}

func TestMarkTokenFunded(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	token, err := store.CreateToken(ctx, CreateTokenParams{
		Name:         "Test Token",
		Symbol:       "TT",
		TargetWallet: "TargetWa11et111111111111111111111111111111",
	})
	require.NoError(t, err)

	funded, err := store.MarkTokenFunded(ctx, token.ID, "FundingSig111")
	require.NoError(t, err)
	assert.Equal(t, StatusFunded, funded.Status)
	assert.Equal(t, "FundingSig111", funded.FundingSignature)

	// Re-applying does not move the status.
	again, err := store.MarkTokenFunded(ctx, token.ID, "FundingSig111")
	require.NoError(t, err)
	assert.Equal(t, StatusFunded, again.Status)
}

func TestUpdateTokenLaunch_Idempotent(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	token, err := store.CreateToken(ctx, CreateTokenParams{
		Name:         "Test Token",
		Symbol:       "TT",
		TargetWallet: "TargetWa11et111111111111111111111111111111",
		Status:       StatusFunded,
	})
	require.NoError(t, err)

	price := 0.0000412
	patch := LaunchPatch{
		TokenURL:        "https://pump.fun/coin/MintPubKey1111111111111111111111111111111",
		InitialPriceSOL: &price,
	}

	first, err := store.UpdateTokenLaunch(ctx, token.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, StatusPriced, first.Status)
	require.NotNil(t, first.TokenURL)
	assert.Equal(t, patch.TokenURL, *first.TokenURL)
	require.NotNil(t, first.InitialPriceSOL)
	assert.Equal(t, price, *first.InitialPriceSOL)

	// Applying the same patch twice leaves the record identical.
	second, err := store.UpdateTokenLaunch(ctx, token.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, *first.TokenURL, *second.TokenURL)
	assert.Equal(t, *first.InitialPriceSOL, *second.InitialPriceSOL)
}

func TestUpdateTokenLaunch_NoPriceStaysMinted(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	token, err := store.CreateToken(ctx, CreateTokenParams{
		Name:         "Test Token",
		Symbol:       "TT",
		TargetWallet: "TargetWa11et111111111111111111111111111111",
		Status:       StatusFunded,
	})
	require.NoError(t, err)

	// Price probe came up empty: record is finalized with a URL but no price.
	updated, err := store.UpdateTokenLaunch(ctx, token.ID, LaunchPatch{
		TokenURL: "https://pump.fun/coin/MintPubKey1111111111111111111111111111111",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusMinted, updated.Status)
	assert.Nil(t, updated.InitialPriceSOL)
}

func TestUpdateTokenLaunch_NeverMovesBackward(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	token, err := store.CreateToken(ctx, CreateTokenParams{
		Name:         "Test Token",
		Symbol:       "TT",
		TargetWallet: "TargetWa11et111111111111111111111111111111",
		Status:       StatusFunded,
	})
	require.NoError(t, err)

	price := 0.001
	_, err = store.UpdateTokenLaunch(ctx, token.ID, LaunchPatch{
		TokenURL:        "https://pump.fun/coin/Mint1",
		InitialPriceSOL: &price,
	})
	require.NoError(t, err)

	// A later patch without a price must not demote priced back to minted.
	updated, err := store.UpdateTokenLaunch(ctx, token.ID, LaunchPatch{
		TokenURL: "https://pump.fun/coin/Mint1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPriced, updated.Status)
	require.NotNil(t, updated.InitialPriceSOL)
	assert.Equal(t, price, *updated.InitialPriceSOL)
}

func TestListTokens(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three"} {
		_, err := store.CreateToken(ctx, CreateTokenParams{
			Name:         name,
			Symbol:       "T",
			TargetWallet: "TargetWa11et111111111111111111111111111111",
		})
		require.NoError(t, err)
	}

	tokens, err := store.ListTokens(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)

	rest, err := store.ListTokens(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
