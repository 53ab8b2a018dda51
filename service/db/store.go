package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a wallet or token record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrMissingTargetWallet is returned when a token record is created
	// without a target wallet. The check happens before touching storage.
	ErrMissingTargetWallet = errors.New("missing target wallet data")
)

// Token record statuses. Transitions are monotonic: draft -> funded ->
// minted -> priced. A record may remain in funded forever if minting fails
// irrecoverably; that is a terminal state requiring external reconciliation.
const (
	StatusDraft  = "draft"
	StatusFunded = "funded"
	StatusMinted = "minted"
	StatusPriced = "priced"
)

// Store provides database operations for the service.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store with the given database connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Wallet is the persisted key material for one token launch: a spend keypair
// that holds the funds and a mint keypair that becomes the token's identity.
// Secret bytes never leave the server except in the one generation response.
type Wallet struct {
	ID             string
	SpendPublicKey string
	MintPublicKey  string
	SpendSecretKey []byte
	MintSecretKey  []byte
	CreatedAt      time.Time
}

// CreateWalletParams contains the parameters for persisting generated key material.
type CreateWalletParams struct {
	SpendPublicKey string
	MintPublicKey  string
	SpendSecretKey []byte
	MintSecretKey  []byte
}

// CreateWallet persists a freshly generated wallet record and assigns it an id.
// Wallet records are immutable after creation.
func (s *Store) CreateWallet(ctx context.Context, params CreateWalletParams) (*Wallet, error) {
	id := uuid.New().String()

	row := s.pool.QueryRow(ctx, `
		INSERT INTO wallets (id, spend_public_key, mint_public_key, spend_secret_key, mint_secret_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, spend_public_key, mint_public_key, spend_secret_key, mint_secret_key, created_at`,
		id, params.SpendPublicKey, params.MintPublicKey, params.SpendSecretKey, params.MintSecretKey,
	)

	return scanWallet(row)
}

// GetWallet retrieves a wallet record by its id.
func (s *Store) GetWallet(ctx context.Context, id string) (*Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, spend_public_key, mint_public_key, spend_secret_key, mint_secret_key, created_at
		FROM wallets WHERE id = $1`, id)

	return scanWallet(row)
}

// GetWalletByPublicKey retrieves a wallet record by its spend public key.
func (s *Store) GetWalletByPublicKey(ctx context.Context, publicKey string) (*Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, spend_public_key, mint_public_key, spend_secret_key, mint_secret_key, created_at
		FROM wallets WHERE spend_public_key = $1`, publicKey)

	return scanWallet(row)
}

func scanWallet(row pgx.Row) (*Wallet, error) {
	var w Wallet
	err := row.Scan(&w.ID, &w.SpendPublicKey, &w.MintPublicKey, &w.SpendSecretKey, &w.MintSecretKey, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}
	return &w, nil
}

// Token is the bookkeeping record for one launched (or launching) token.
type Token struct {
	ID               string
	Name             string
	Symbol           string
	Description      string
	ImageURL         string
	Twitter          *string
	Telegram         *string
	Website          *string
	WalletID         *string
	FundingWallet    string
	FundingSignature string
	SolAmount        float64
	TargetWallet     string
	TokenURL         *string
	InitialPriceSOL  *float64
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateTokenParams contains the parameters for creating a token record.
type CreateTokenParams struct {
	Name             string
	Symbol           string
	Description      string
	ImageURL         string
	Twitter          *string
	Telegram         *string
	Website          *string
	WalletID         *string
	FundingWallet    string
	FundingSignature string
	SolAmount        float64
	TargetWallet     string
	Status           string
}

// CreateToken inserts a new token record. A target wallet is required; the
// check happens before any query is issued. Status defaults to draft.
func (s *Store) CreateToken(ctx context.Context, params CreateTokenParams) (*Token, error) {
	if params.TargetWallet == "" {
		return nil, ErrMissingTargetWallet
	}

	status := params.Status
	if status == "" {
		status = StatusDraft
	}

	id := uuid.New().String()

	row := s.pool.QueryRow(ctx, `
		INSERT INTO tokens (
			id, token_name, token_symbol, description, image_url,
			twitter, telegram, website, wallet_id,
			funding_wallet, funding_signature, sol_amount, target_wallet, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+tokenColumns,
		id, params.Name, params.Symbol, params.Description, params.ImageURL,
		params.Twitter, params.Telegram, params.Website, params.WalletID,
		params.FundingWallet, params.FundingSignature, params.SolAmount, params.TargetWallet, status,
	)

	return scanToken(row)
}

// GetToken retrieves a token record by id.
func (s *Store) GetToken(ctx context.Context, id string) (*Token, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE id = $1`, id)
	return scanToken(row)
}

// ListTokens retrieves token records, newest first.
func (s *Store) ListTokens(ctx context.Context, limit, offset int32) ([]*Token, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+tokenColumns+` FROM tokens ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// MarkTokenFunded records the funding signature and advances a draft record
// to funded. Applying it again with the same signature is a no-op.
func (s *Store) MarkTokenFunded(ctx context.Context, id, fundingSignature string) (*Token, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tokens SET
			funding_signature = $2,
			status = CASE WHEN status = $3 THEN $4 ELSE status END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+tokenColumns,
		id, fundingSignature, StatusDraft, StatusFunded)
	return scanToken(row)
}

// LaunchPatch is the post-mint patch applied to a token record.
type LaunchPatch struct {
	TokenURL        string
	InitialPriceSOL *float64
}

// UpdateTokenLaunch attaches the token URL and, when known, the initial price
// to a token record. The patch is idempotent: re-applying the same patch
// leaves the stored record identical. Status advances monotonically to minted
// (or priced when a price is present) and never moves backward.
func (s *Store) UpdateTokenLaunch(ctx context.Context, id string, patch LaunchPatch) (*Token, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tokens SET
			token_url = $2,
			initial_price_sol = COALESCE($3, initial_price_sol),
			status = CASE
				WHEN $3::double precision IS NOT NULL OR initial_price_sol IS NOT NULL THEN $4
				WHEN status = ANY($6) THEN $5
				ELSE status
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+tokenColumns,
		id, patch.TokenURL, patch.InitialPriceSOL, StatusPriced, StatusMinted,
		[]string{StatusDraft, StatusFunded})
	return scanToken(row)
}

const tokenColumns = `id, token_name, token_symbol, description, image_url,
	twitter, telegram, website, wallet_id,
	funding_wallet, funding_signature, sol_amount, target_wallet,
	token_url, initial_price_sol, status, created_at, updated_at`

func scanToken(row pgx.Row) (*Token, error) {
	var t Token
	err := row.Scan(
		&t.ID, &t.Name, &t.Symbol, &t.Description, &t.ImageURL,
		&t.Twitter, &t.Telegram, &t.Website, &t.WalletID,
		&t.FundingWallet, &t.FundingSignature, &t.SolAmount, &t.TargetWallet,
		&t.TokenURL, &t.InitialPriceSOL, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan token: %w", err)
	}
	return &t, nil
}
