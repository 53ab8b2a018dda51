package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// GeneratedWallet is the server's answer to a wallet generation request.
type GeneratedWallet struct {
	ID             string  `json:"id"`
	PublicKey      string  `json:"publicKey"`
	MintPublicKey  string  `json:"mintPublicKey"`
	RequiredAmount float64 `json:"requiredAmount"`
}

// LaunchRequest describes a token launch. Set WalletID to use a wallet the
// server generated, or WalletData to supply key material inline.
type LaunchRequest struct {
	WalletID         string      `json:"walletId,omitempty"`
	WalletData       *WalletData `json:"walletData,omitempty"`
	TokenName        string      `json:"tokenName"`
	TokenSymbol      string      `json:"tokenSymbol"`
	TokenDescription string      `json:"tokenDescription,omitempty"`
	ImageURL         string      `json:"imageUrl,omitempty"`
	Twitter          *string     `json:"twitter,omitempty"`
	Telegram         *string     `json:"telegram,omitempty"`
	Website          *string     `json:"website,omitempty"`
	TargetWallet     string      `json:"targetWallet,omitempty"`
	Buyback          *bool       `json:"buyback,omitempty"`
}

// WalletData carries raw 64-byte private keys as integer arrays.
type WalletData struct {
	Keypair   []int  `json:"keypair"`
	Mint      []int  `json:"mint"`
	PublicKey string `json:"publicKey,omitempty"`
}

// LaunchResult is the outcome of a completed launch.
type LaunchResult struct {
	TokenURL          string   `json:"tokenUrl"`
	TokenID           string   `json:"tokenId"`
	WorkflowID        string   `json:"workflowId"`
	InitialPriceInSol *float64 `json:"initialPriceInSol,omitempty"`
	Details           string   `json:"details,omitempty"`
}

// LaunchStatus reports where a launch workflow currently stands.
type LaunchStatus struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
}

// Token is a token bookkeeping record.
type Token struct {
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

// CreateTokenRequest creates a bookkeeping record directly, outside the
// launch workflow.
type CreateTokenRequest struct {
	TokenName        string  `json:"tokenName"`
	TokenSymbol      string  `json:"tokenSymbol"`
	Description      string  `json:"description,omitempty"`
	ImageURL         string  `json:"imageUrl,omitempty"`
	Twitter          *string `json:"twitter,omitempty"`
	Telegram         *string `json:"telegram,omitempty"`
	Website          *string `json:"website,omitempty"`
	WalletID         *string `json:"walletId,omitempty"`
	FundingWallet    string  `json:"fundingWallet,omitempty"`
	FundingSignature string  `json:"fundingSignature,omitempty"`
	SolAmount        float64 `json:"solAmount,omitempty"`
	TargetWallet     string  `json:"targetWallet"`
}

// UpdateTokenRequest is the post-mint patch for a token record.
type UpdateTokenRequest struct {
	TokenURL          string   `json:"tokenUrl"`
	InitialPriceInSol *float64 `json:"initialPriceInSol,omitempty"`
}

// Client is the HTTP client for the launchpad service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new launchpad service client. The API key is sent as a
// bearer token on authenticated endpoints.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		// The launch endpoint blocks until the workflow finishes.
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GenerateWallet asks the server to generate and store a fresh wallet.
func (c *Client) GenerateWallet(ctx context.Context) (*GeneratedWallet, error) {
	resp, err := c.do(ctx, "POST", "/api/v1/wallets", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var wallet GeneratedWallet
	if err := decodeEnvelope(resp.Body, &wallet); err != nil {
		return nil, err
	}

	c.logger.Debug("wallet generated", "wallet_id", wallet.ID, "public_key", wallet.PublicKey)
	return &wallet, nil
}

// FundWallet transfers the configured funding amount to a stored wallet and
// waits for confirmation. It returns the transfer signature.
func (c *Client) FundWallet(ctx context.Context, walletID string) (string, error) {
	path := fmt.Sprintf("/api/v1/wallets/%s/fund", url.PathEscape(walletID))
	resp, err := c.do(ctx, "POST", path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	var data struct {
		Signature string `json:"signature"`
	}
	if err := decodeEnvelope(resp.Body, &data); err != nil {
		return "", err
	}

	c.logger.Debug("wallet funded", "wallet_id", walletID, "signature", data.Signature)
	return data.Signature, nil
}

// Launch runs the full token launch and blocks until it completes.
func (c *Client) Launch(ctx context.Context, req LaunchRequest) (*LaunchResult, error) {
	resp, err := c.do(ctx, "POST", "/api/v1/launch", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var result LaunchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("token launched", "token_url", result.TokenURL, "workflow_id", result.WorkflowID)
	return &result, nil
}

// GetLaunchStatus reports the status of a launch workflow.
func (c *Client) GetLaunchStatus(ctx context.Context, workflowID string) (*LaunchStatus, error) {
	path := fmt.Sprintf("/api/v1/launches/%s", url.PathEscape(workflowID))
	resp, err := c.do(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var status LaunchStatus
	if err := decodeEnvelope(resp.Body, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateToken creates a token bookkeeping record.
func (c *Client) CreateToken(ctx context.Context, req CreateTokenRequest) (*Token, error) {
	resp, err := c.do(ctx, "POST", "/api/v1/tokens", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.parseErrorResponse(resp)
	}

	var token Token
	if err := decodeEnvelope(resp.Body, &token); err != nil {
		return nil, err
	}

	c.logger.Debug("token record created", "token_id", token.ID, "symbol", token.TokenSymbol)
	return &token, nil
}

// GetToken retrieves a single token record.
func (c *Client) GetToken(ctx context.Context, id string) (*Token, error) {
	path := fmt.Sprintf("/api/v1/tokens/%s", url.PathEscape(id))
	resp, err := c.do(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var token Token
	if err := decodeEnvelope(resp.Body, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// ListTokens retrieves token records, newest first.
func (c *Client) ListTokens(ctx context.Context, limit, offset int) ([]*Token, error) {
	path := fmt.Sprintf("/api/v1/tokens?limit=%d&offset=%d", limit, offset)
	resp, err := c.do(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var tokens []*Token
	if err := decodeEnvelope(resp.Body, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// UpdateToken applies the post-mint patch to a token record.
func (c *Client) UpdateToken(ctx context.Context, id string, req UpdateTokenRequest) (*Token, error) {
	path := fmt.Sprintf("/api/v1/tokens/%s", url.PathEscape(id))
	resp, err := c.do(ctx, "PATCH", path, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var token Token
	if err := decodeEnvelope(resp.Body, &token); err != nil {
		return nil, err
	}

	c.logger.Debug("token record updated", "token_id", token.ID, "status", token.Status)
	return &token, nil
}

// do builds and executes a request. A non-nil body is JSON encoded; the API
// key is attached when configured.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// decodeEnvelope unwraps a {success, data} envelope into dst.
func decodeEnvelope(r io.Reader, dst interface{}) error {
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !envelope.Success {
		return fmt.Errorf("request failed: %s", envelope.Error)
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// parseErrorResponse attempts to parse an error envelope from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	if errResp.Details != "" {
		return fmt.Errorf("request failed: %s: %s", errResp.Error, errResp.Details)
	}
	return fmt.Errorf("request failed: %s", errResp.Error)
}
