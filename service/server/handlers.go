package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"go.temporal.io/sdk/client"

	"github.com/solmint/launchpad/service/config"
	"github.com/solmint/launchpad/service/db"
	"github.com/solmint/launchpad/service/solana"
	"github.com/solmint/launchpad/service/temporal"
)

const (
	maxRequestBodySize = 1 << 20 // 1MB - plenty for token metadata
	maxNameLength      = 64
	maxSymbolLength    = 10
)

// Store defines the database operations needed by handlers.
// This allows for easy mocking in tests.
type Store interface {
	CreateWallet(ctx context.Context, params db.CreateWalletParams) (*db.Wallet, error)
	GetWallet(ctx context.Context, id string) (*db.Wallet, error)
	CreateToken(ctx context.Context, params db.CreateTokenParams) (*db.Token, error)
	GetToken(ctx context.Context, id string) (*db.Token, error)
	ListTokens(ctx context.Context, limit, offset int32) ([]*db.Token, error)
	UpdateTokenLaunch(ctx context.Context, id string, patch db.LaunchPatch) (*db.Token, error)
}

// Funder defines the funding transfer operation needed by handlers.
type Funder interface {
	Transfer(ctx context.Context, params solana.TransferParams) (solanago.Signature, error)
}

// LaunchStarter defines the workflow operations needed by handlers.
type LaunchStarter interface {
	StartTokenLaunch(ctx context.Context, input temporal.TokenLaunchInput) (client.WorkflowRun, error)
	DescribeLaunch(ctx context.Context, workflowID string) (*temporal.LaunchStatus, error)
}

// handleGenerateWallet returns a handler that generates and stores a fresh
// spend/mint keypair pair.
// POST /api/v1/wallets
func handleGenerateWallet(store Store, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spend, err := solanago.NewRandomPrivateKey()
		if err != nil {
			logger.Error("failed to generate spend keypair", "error", err)
			writeError(w, "failed to generate wallet", http.StatusInternalServerError)
			return
		}
		mint, err := solanago.NewRandomPrivateKey()
		if err != nil {
			logger.Error("failed to generate mint keypair", "error", err)
			writeError(w, "failed to generate wallet", http.StatusInternalServerError)
			return
		}

		wallet, err := store.CreateWallet(r.Context(), db.CreateWalletParams{
			SpendPublicKey: spend.PublicKey().String(),
			MintPublicKey:  mint.PublicKey().String(),
			SpendSecretKey: []byte(spend),
			MintSecretKey:  []byte(mint),
		})
		if err != nil {
			logger.Error("failed to persist wallet", "error", err)
			writeError(w, "failed to store wallet", http.StatusInternalServerError)
			return
		}

		logger.Info("wallet generated",
			"wallet_id", wallet.ID,
			"public_key", wallet.SpendPublicKey,
		)

		// Secret key material stays server-side; the response only carries
		// identifiers and the amount the caller must have funded.
		writeData(w, map[string]interface{}{
			"id":             wallet.ID,
			"publicKey":      wallet.SpendPublicKey,
			"mintPublicKey":  wallet.MintPublicKey,
			"requiredAmount": cfg.FundingAmountSOL,
		}, http.StatusOK)
	})
}

// handleFundWallet returns a handler that funds a stored wallet from the
// agent account and waits for confirmation.
// POST /api/v1/wallets/{id}/fund
func handleFundWallet(store Store, funder Funder, agentKey solanago.PrivateKey, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		wallet, err := store.GetWallet(r.Context(), id)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, "wallet not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("failed to load wallet", "wallet_id", id, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		dest, err := solanago.PublicKeyFromBase58(wallet.SpendPublicKey)
		if err != nil {
			logger.Error("stored wallet has invalid public key", "wallet_id", id, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		sig, err := funder.Transfer(r.Context(), solana.TransferParams{
			From:     agentKey,
			To:       dest,
			Lamports: cfg.FundingAmountLamports(),
		})
		if err != nil {
			logger.Error("funding transfer failed", "wallet_id", id, "error", err)
			writeError(w, err.Error(), fundingErrorStatus(err))
			return
		}

		logger.Info("wallet funded",
			"wallet_id", id,
			"signature", sig.String(),
		)

		writeData(w, map[string]interface{}{
			"signature": sig.String(),
		}, http.StatusOK)
	})
}

// fundingErrorStatus maps transfer failures to HTTP statuses. A confirmation
// timeout is ambiguous: the transfer may still land, so the caller must not
// simply retry.
func fundingErrorStatus(err error) int {
	switch {
	case errors.Is(err, solana.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, solana.ErrSubmissionFailed):
		return http.StatusBadGateway
	case errors.Is(err, solana.ErrConfirmationTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// launchRequest is the request body for the launch endpoint. Either walletId
// (a stored wallet) or walletData (inline key material) must be provided.
type launchRequest struct {
	WalletID         string      `json:"walletId"`
	WalletData       *walletData `json:"walletData"`
	TokenName        string      `json:"tokenName"`
	TokenSymbol      string      `json:"tokenSymbol"`
	TokenDescription string      `json:"tokenDescription"`
	ImageURL         string      `json:"imageUrl"`
	Twitter          *string     `json:"twitter,omitempty"`
	Telegram         *string     `json:"telegram,omitempty"`
	Website          *string     `json:"website,omitempty"`
	TargetWallet     string      `json:"targetWallet,omitempty"`
	Buyback          *bool       `json:"buyback,omitempty"`
}

// walletData is inline key material: raw 64-byte private keys as integer arrays.
type walletData struct {
	Keypair   []int  `json:"keypair"`
	Mint      []int  `json:"mint"`
	PublicKey string `json:"publicKey"`
}

// handleLaunchToken returns a handler that runs the full token launch
// workflow synchronously and responds with the token URL.
// POST /api/v1/launch
func handleLaunchToken(store Store, launcher LaunchStarter, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := parseLaunchRequest(r)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := validateTokenMetadata(req); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		walletID := req.WalletID
		if walletID == "" {
			// Inline key material is persisted immediately so custody is
			// server-side from here on and the workflow has one lookup path.
			wallet, err := storeInlineWallet(r.Context(), store, req.WalletData)
			if err != nil {
				writeError(w, err.Error(), http.StatusBadRequest)
				return
			}
			walletID = wallet.ID
		}

		buyback := cfg.BuybackEnabled
		if req.Buyback != nil {
			// The flag can opt out per request, but never enable buy-back
			// without a configured buy-back wallet.
			buyback = *req.Buyback && cfg.BuybackEnabled
		}

		input := temporal.TokenLaunchInput{
			WalletID:         walletID,
			TokenName:        req.TokenName,
			TokenSymbol:      req.TokenSymbol,
			TokenDescription: req.TokenDescription,
			ImageURL:         req.ImageURL,
			Twitter:          req.Twitter,
			Telegram:         req.Telegram,
			Website:          req.Website,
			TargetWallet:     req.TargetWallet,
			FundingLamports:  cfg.FundingAmountLamports(),
			DevBuyLamports:   cfg.DevBuyAmountLamports(),
			Buyback:          buyback,
			BuybackLamports:  cfg.BuybackAmountLamports(),
		}

		run, err := launcher.StartTokenLaunch(r.Context(), input)
		if err != nil {
			logger.Error("failed to start launch workflow", "error", err)
			writeError(w, "failed to start launch", http.StatusInternalServerError)
			return
		}

		logger.Info("launch workflow started",
			"workflow_id", run.GetID(),
			"wallet_id", walletID,
			"symbol", req.TokenSymbol,
		)

		var result temporal.TokenLaunchResult
		if err := run.Get(r.Context(), &result); err != nil {
			logger.Error("launch workflow failed",
				"workflow_id", run.GetID(),
				"error", err,
			)
			writeErrorDetails(w, "token launch failed", err.Error(), launchErrorStatus(err))
			return
		}

		resp := map[string]interface{}{
			"success":    true,
			"tokenUrl":   result.TokenURL,
			"tokenId":    result.TokenID,
			"workflowId": run.GetID(),
		}
		if result.InitialPriceSOL != nil {
			resp["initialPriceInSol"] = *result.InitialPriceSOL
		}
		if result.Error != nil {
			// Partial failure (e.g. buy-back): the token exists, report it.
			resp["details"] = *result.Error
		}
		writeJSON(w, resp, http.StatusOK)
	})
}

// launchErrorStatus maps a workflow failure to an HTTP status. Activity errors
// arrive flattened through Temporal, so matching is on message content.
func launchErrorStatus(err error) int {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return http.StatusBadRequest
	case strings.Contains(msg, "record not found"):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func parseLaunchRequest(r *http.Request) (*launchRequest, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxRequestBodySize); err != nil {
			return nil, fmt.Errorf("invalid multipart form: %v", err)
		}
		req := &launchRequest{
			WalletID:         r.FormValue("walletId"),
			TokenName:        r.FormValue("tokenName"),
			TokenSymbol:      r.FormValue("tokenSymbol"),
			TokenDescription: r.FormValue("tokenDescription"),
			ImageURL:         r.FormValue("imageUrl"),
			TargetWallet:     r.FormValue("targetWallet"),
		}
		for _, field := range []struct {
			name string
			dst  **string
		}{
			{"twitter", &req.Twitter},
			{"telegram", &req.Telegram},
			{"website", &req.Website},
		} {
			if v := r.FormValue(field.name); v != "" {
				value := v
				*field.dst = &value
			}
		}
		if v := r.FormValue("buyback"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid buyback value %q", v)
			}
			req.Buyback = &b
		}
		if v := r.FormValue("walletData"); v != "" {
			var wd walletData
			if err := json.Unmarshal([]byte(v), &wd); err != nil {
				return nil, fmt.Errorf("invalid walletData: %v", err)
			}
			req.WalletData = &wd
		}
		return req, nil
	}

	var req launchRequest
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodySize))
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %v", err)
	}
	return &req, nil
}

func validateTokenMetadata(req *launchRequest) error {
	if req.WalletID == "" && req.WalletData == nil {
		return fmt.Errorf("walletId or walletData is required")
	}
	if req.TokenName == "" {
		return fmt.Errorf("tokenName is required")
	}
	if len(req.TokenName) > maxNameLength {
		return fmt.Errorf("tokenName too long: maximum length is %d characters", maxNameLength)
	}
	if req.TokenSymbol == "" {
		return fmt.Errorf("tokenSymbol is required")
	}
	if len(req.TokenSymbol) > maxSymbolLength {
		return fmt.Errorf("tokenSymbol too long: maximum length is %d characters", maxSymbolLength)
	}
	return nil
}

// storeInlineWallet persists inline key material as a stored wallet record.
func storeInlineWallet(ctx context.Context, store Store, data *walletData) (*db.Wallet, error) {
	spendKey, err := privateKeyFromInts(data.Keypair)
	if err != nil {
		return nil, fmt.Errorf("invalid keypair: %v", err)
	}
	mintKey, err := privateKeyFromInts(data.Mint)
	if err != nil {
		return nil, fmt.Errorf("invalid mint keypair: %v", err)
	}

	if data.PublicKey != "" && data.PublicKey != spendKey.PublicKey().String() {
		return nil, fmt.Errorf("publicKey does not match the supplied keypair")
	}

	return store.CreateWallet(ctx, db.CreateWalletParams{
		SpendPublicKey: spendKey.PublicKey().String(),
		MintPublicKey:  mintKey.PublicKey().String(),
		SpendSecretKey: []byte(spendKey),
		MintSecretKey:  []byte(mintKey),
	})
}

func privateKeyFromInts(values []int) (solanago.PrivateKey, error) {
	if len(values) != 64 {
		return nil, fmt.Errorf("expected 64 bytes, got %d", len(values))
	}
	key := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("byte %d out of range", i)
		}
		key[i] = byte(v)
	}
	return solanago.PrivateKey(key), nil
}

// createTokenRequest is the request body for creating a bookkeeping record.
type createTokenRequest struct {
	TokenName        string  `json:"tokenName"`
	TokenSymbol      string  `json:"tokenSymbol"`
	Description      string  `json:"description"`
	ImageURL         string  `json:"imageUrl"`
	Twitter          *string `json:"twitter,omitempty"`
	Telegram         *string `json:"telegram,omitempty"`
	Website          *string `json:"website,omitempty"`
	WalletID         *string `json:"walletId,omitempty"`
	FundingWallet    string  `json:"fundingWallet"`
	FundingSignature string  `json:"fundingSignature"`
	SolAmount        float64 `json:"solAmount"`
	TargetWallet     string  `json:"targetWallet"`
}

// handleCreateToken returns a handler that creates a token bookkeeping record.
// POST /api/v1/tokens
func handleCreateToken(store Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createTokenRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
		if err := decoder.Decode(&req); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if req.TargetWallet == "" {
			writeError(w, "Missing target wallet data", http.StatusBadRequest)
			return
		}

		status := db.StatusDraft
		if req.FundingSignature != "" {
			status = db.StatusFunded
		}

		token, err := store.CreateToken(r.Context(), db.CreateTokenParams{
			Name:             req.TokenName,
			Symbol:           req.TokenSymbol,
			Description:      req.Description,
			ImageURL:         req.ImageURL,
			Twitter:          req.Twitter,
			Telegram:         req.Telegram,
			Website:          req.Website,
			WalletID:         req.WalletID,
			FundingWallet:    req.FundingWallet,
			FundingSignature: req.FundingSignature,
			SolAmount:        req.SolAmount,
			TargetWallet:     req.TargetWallet,
			Status:           status,
		})
		if errors.Is(err, db.ErrMissingTargetWallet) {
			writeError(w, "Missing target wallet data", http.StatusBadRequest)
			return
		}
		if err != nil {
			logger.Error("failed to create token record", "error", err)
			writeError(w, "failed to create token record", http.StatusInternalServerError)
			return
		}

		logger.Info("token record created",
			"token_id", token.ID,
			"symbol", token.Symbol,
			"status", token.Status,
		)

		writeJSON(w, map[string]interface{}{
			"success": true,
			"data":    tokenToResponse(token),
			"tokenId": token.ID,
		}, http.StatusCreated)
	})
}

// handleGetToken returns a handler that retrieves one token record.
// GET /api/v1/tokens/{id}
func handleGetToken(store Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		token, err := store.GetToken(r.Context(), id)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, "token not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("failed to get token", "token_id", id, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeData(w, tokenToResponse(token), http.StatusOK)
	})
}

// handleListTokens returns a handler that lists token records, newest first.
// GET /api/v1/tokens?limit={n}&offset={n}
func handleListTokens(store Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := parseQueryInt(r, "limit", 50)
		offset := parseQueryInt(r, "offset", 0)

		tokens, err := store.ListTokens(r.Context(), limit, offset)
		if err != nil {
			logger.Error("failed to list tokens", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		resp := make([]tokenResponse, len(tokens))
		for i, token := range tokens {
			resp[i] = tokenToResponse(token)
		}
		writeData(w, resp, http.StatusOK)
	})
}

// updateTokenRequest is the request body for the post-mint patch.
type updateTokenRequest struct {
	TokenURL          string   `json:"tokenUrl"`
	InitialPriceInSol *float64 `json:"initialPriceInSol,omitempty"`
}

// handleUpdateToken returns a handler that applies the post-mint patch.
// Applying the same patch twice leaves the record unchanged.
// PATCH /api/v1/tokens/{id}
func handleUpdateToken(store Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var req updateTokenRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
		if err := decoder.Decode(&req); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if req.TokenURL == "" {
			writeError(w, "tokenUrl is required", http.StatusBadRequest)
			return
		}

		token, err := store.UpdateTokenLaunch(r.Context(), id, db.LaunchPatch{
			TokenURL:        req.TokenURL,
			InitialPriceSOL: req.InitialPriceInSol,
		})
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, "token not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("failed to update token", "token_id", id, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		logger.Info("token record updated",
			"token_id", token.ID,
			"status", token.Status,
		)

		writeData(w, tokenToResponse(token), http.StatusOK)
	})
}

// handleGetLaunchStatus returns a handler that reports a launch workflow's status.
// GET /api/v1/launches/{workflow_id}
func handleGetLaunchStatus(launcher LaunchStarter, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workflowID := r.PathValue("workflow_id")

		status, err := launcher.DescribeLaunch(r.Context(), workflowID)
		if err != nil {
			logger.Debug("failed to describe launch", "workflow_id", workflowID, "error", err)
			writeError(w, "launch not found", http.StatusNotFound)
			return
		}

		writeData(w, status, http.StatusOK)
	})
}

// tokenResponse is the JSON response format for a token record.
type tokenResponse struct {
	ID                string    `json:"id"`
	TokenName         string    `json:"tokenName"`
	TokenSymbol       string    `json:"tokenSymbol"`
	Description       string    `json:"description,omitempty"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	Twitter           *string   `json:"twitter,omitempty"`
	Telegram          *string   `json:"telegram,omitempty"`
	Website           *string   `json:"website,omitempty"`
	WalletID          *string   `json:"walletId,omitempty"`
	FundingWallet     string    `json:"fundingWallet,omitempty"`
	FundingSignature  string    `json:"fundingSignature,omitempty"`
	SolAmount         float64   `json:"solAmount"`
	TargetWallet      string    `json:"targetWallet"`
	TokenURL          *string   `json:"tokenUrl,omitempty"`
	InitialPriceInSol *float64  `json:"initialPriceInSol,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// tokenToResponse converts a domain Token to a response format. Secret key
// material never appears here.
func tokenToResponse(t *db.Token) tokenResponse {
	return tokenResponse{
		ID:                t.ID,
		TokenName:         t.Name,
		TokenSymbol:       t.Symbol,
		Description:       t.Description,
		ImageURL:          t.ImageURL,
		Twitter:           t.Twitter,
		Telegram:          t.Telegram,
		Website:           t.Website,
		WalletID:          t.WalletID,
		FundingWallet:     t.FundingWallet,
		FundingSignature:  t.FundingSignature,
		SolAmount:         t.SolAmount,
		TargetWallet:      t.TargetWallet,
		TokenURL:          t.TokenURL,
		InitialPriceInSol: t.InitialPriceSOL,
		Status:            t.Status,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func parseQueryInt(r *http.Request, key string, def int32) int32 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		return def
	}
	return int32(n)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeData writes a success envelope around the given payload.
func writeData(w http.ResponseWriter, data interface{}, statusCode int) {
	writeJSON(w, map[string]interface{}{
		"success": true,
		"data":    data,
	}, statusCode)
}

// writeError writes a JSON error envelope.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, map[string]interface{}{
		"success": false,
		"error":   message,
	}, statusCode)
}

// writeErrorDetails writes a JSON error envelope with extra detail.
func writeErrorDetails(w http.ResponseWriter, message, details string, statusCode int) {
	writeJSON(w, map[string]interface{}{
		"success": false,
		"error":   message,
		"details": details,
	}, statusCode)
}
