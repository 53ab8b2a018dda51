package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWallet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/wallets", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"id":             "wallet-1",
				"publicKey":      "SpendPub",
				"mintPublicKey":  "MintPub",
				"requiredAmount": 3.125,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	wallet, err := client.GenerateWallet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wallet-1", wallet.ID)
	assert.Equal(t, "SpendPub", wallet.PublicKey)
	assert.Equal(t, 3.125, wallet.RequiredAmount)
}

func TestGenerateWallet_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "unauthorized",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong-key", nil, nil)
	_, err := client.GenerateWallet(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestFundWallet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/wallets/wallet-1/fund", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"signature": "FundSig"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	sig, err := client.FundWallet(context.Background(), "wallet-1")
	require.NoError(t, err)
	assert.Equal(t, "FundSig", sig)
}

func TestFundWallet_InsufficientFunds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "insufficient funds in funding account",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	_, err := client.FundWallet(context.Background(), "wallet-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestLaunch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/launch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wallet-1", body["walletId"])
		assert.Equal(t, "Test Token", body["tokenName"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":           true,
			"tokenUrl":          "https://pump.fun/MintPub",
			"tokenId":           "tok-1",
			"workflowId":        "token-launch-1",
			"initialPriceInSol": 0.000042,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	result, err := client.Launch(context.Background(), LaunchRequest{
		WalletID:    "wallet-1",
		TokenName:   "Test Token",
		TokenSymbol: "TT",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pump.fun/MintPub", result.TokenURL)
	assert.Equal(t, "tok-1", result.TokenID)
	require.NotNil(t, result.InitialPriceInSol)
	assert.Equal(t, 0.000042, *result.InitialPriceInSol)
}

func TestLaunch_FailureWithDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "token launch failed",
			"details": "token launch failed: simulation failed",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	_, err := client.Launch(context.Background(), LaunchRequest{
		WalletID:    "wallet-1",
		TokenName:   "Test Token",
		TokenSymbol: "TT",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation failed")
}

func TestCreateToken_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/tokens", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"tokenId": "tok-1",
			"data": map[string]interface{}{
				"id":           "tok-1",
				"tokenName":    "Test Token",
				"tokenSymbol":  "TT",
				"targetWallet": "TargetPub",
				"status":       "funded",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	token, err := client.CreateToken(context.Background(), CreateTokenRequest{
		TokenName:    "Test Token",
		TokenSymbol:  "TT",
		TargetWallet: "TargetPub",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token.ID)
	assert.Equal(t, "funded", token.Status)
}

func TestCreateToken_MissingTargetWallet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "Missing target wallet data",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	_, err := client.CreateToken(context.Background(), CreateTokenRequest{
		TokenName:   "Test Token",
		TokenSymbol: "TT",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing target wallet data")
}

func TestListTokens_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/tokens", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"id": "tok-1", "tokenSymbol": "AA", "status": "priced"},
				{"id": "tok-2", "tokenSymbol": "BB", "status": "minted"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil, nil)
	tokens, err := client.ListTokens(context.Background(), 10, 20)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "tok-1", tokens[0].ID)
	assert.Equal(t, "minted", tokens[1].Status)
}

func TestUpdateToken_Success(t *testing.T) {
	price := 0.000042
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PATCH", r.Method)
		assert.Equal(t, "/api/v1/tokens/tok-1", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://pump.fun/MintPub", body["tokenUrl"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"id":                "tok-1",
				"tokenUrl":          "https://pump.fun/MintPub",
				"initialPriceInSol": price,
				"status":            "priced",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	token, err := client.UpdateToken(context.Background(), "tok-1", UpdateTokenRequest{
		TokenURL:          "https://pump.fun/MintPub",
		InitialPriceInSol: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "priced", token.Status)
	require.NotNil(t, token.InitialPriceInSol)
	assert.Equal(t, price, *token.InitialPriceInSol)
}

func TestGetLaunchStatus_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "launch not found",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil, nil)
	_, err := client.GetLaunchStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch not found")
}
