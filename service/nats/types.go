package nats

import (
	"time"

	"github.com/solmint/launchpad/service/db"
)

// TokenLaunchEvent represents a completed token launch published to NATS.
// This is published to the subject "launches.{mint_public_key}" in JetStream.
type TokenLaunchEvent struct {
	// Token identifiers
	TokenID       string `json:"token_id"`
	MintPublicKey string `json:"mint_public_key"`
	TokenURL      string `json:"token_url"`

	// Launch details
	Name             string   `json:"name"`
	Symbol           string   `json:"symbol"`
	FundingWallet    string   `json:"funding_wallet,omitempty"`
	FundingSignature string   `json:"funding_signature,omitempty"`
	CreateSignature  string   `json:"create_signature,omitempty"`
	InitialPriceSOL  *float64 `json:"initial_price_sol,omitempty"`
	Status           string   `json:"status"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// FromDBToken converts a token record to a TokenLaunchEvent for publishing.
func FromDBToken(token *db.Token, mintPublicKey, createSignature string) *TokenLaunchEvent {
	event := &TokenLaunchEvent{
		TokenID:          token.ID,
		MintPublicKey:    mintPublicKey,
		Name:             token.Name,
		Symbol:           token.Symbol,
		FundingWallet:    token.FundingWallet,
		FundingSignature: token.FundingSignature,
		CreateSignature:  createSignature,
		InitialPriceSOL:  token.InitialPriceSOL,
		Status:           token.Status,
		PublishedAt:      time.Now().UTC(),
	}

	if token.TokenURL != nil {
		event.TokenURL = *token.TokenURL
	}

	return event
}
