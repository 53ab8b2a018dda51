package solana

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmint/launchpad/service/retry"
)

// mockRPC implements RPCClient for tests.
type mockRPC struct {
	balance       uint64
	balanceErr    error
	blockhashErrs []error // consumed per call; nil entry means success
	blockhashCall int
	sendSig       solanago.Signature
	sendErr       error
	sendCalls     int
	statuses      []*rpc.SignatureStatusesResult
	statusCalls   int
}

func (m *mockRPC) GetBalance(ctx context.Context, account solanago.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	return &rpc.GetBalanceResult{Value: m.balance}, nil
}

func (m *mockRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	defer func() { m.blockhashCall++ }()
	if m.blockhashCall < len(m.blockhashErrs) {
		if err := m.blockhashErrs[m.blockhashCall]; err != nil {
			return nil, err
		}
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            solanago.Hash{},
			LastValidBlockHeight: 1000,
		},
	}, nil
}

func (m *mockRPC) SendTransactionWithOpts(ctx context.Context, tx *solanago.Transaction, opts rpc.TransactionOpts) (solanago.Signature, error) {
	m.sendCalls++
	if m.sendErr != nil {
		return solanago.Signature{}, m.sendErr
	}
	return m.sendSig, nil
}

func (m *mockRPC) GetSignatureStatuses(ctx context.Context, search bool, sigs ...solanago.Signature) (*rpc.GetSignatureStatusesResult, error) {
	defer func() { m.statusCalls++ }()
	var status *rpc.SignatureStatusesResult
	if m.statusCalls < len(m.statuses) {
		status = m.statuses[m.statusCalls]
	} else if len(m.statuses) > 0 {
		status = m.statuses[len(m.statuses)-1]
	}
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{status},
	}, nil
}

func newTestClient(t *testing.T, mock *mockRPC) *Client {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c := NewClient(mock, "test", time.Second, nil, logger)
	// Tighten timings so tests run fast.
	c.confirmPollInterval = time.Millisecond
	c.blockhashRetry = retry.Policy{MaxAttempts: 3, Backoff: retry.Fixed(time.Millisecond)}
	return c
}

func testTransferParams(t *testing.T) TransferParams {
	t.Helper()
	from, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	to, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	return TransferParams{
		From:     from,
		To:       to.PublicKey(),
		Lamports: 3_125_000_000,
	}
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	mock := &mockRPC{balance: 0}
	client := newTestClient(t, mock)

	_, err := client.Transfer(context.Background(), testTransferParams(t))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// No write RPC call may be made after the precondition fails.
	assert.Equal(t, 0, mock.sendCalls)
	assert.Equal(t, 0, mock.blockhashCall)
}

func TestTransfer_BlockhashRetriesExhausted(t *testing.T) {
	transient := errors.New("rpc unavailable")
	mock := &mockRPC{
		balance:       10_000_000_000,
		blockhashErrs: []error{transient, transient, transient},
	}
	client := newTestClient(t, mock)

	_, err := client.Transfer(context.Background(), testTransferParams(t))
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Equal(t, 3, mock.blockhashCall)
	assert.Equal(t, 0, mock.sendCalls)
}

func TestTransfer_BlockhashRecoversOnRetry(t *testing.T) {
	transient := errors.New("rpc unavailable")
	mock := &mockRPC{
		balance:       10_000_000_000,
		blockhashErrs: []error{transient, nil},
		statuses: []*rpc.SignatureStatusesResult{
			{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
		},
	}
	client := newTestClient(t, mock)

	sig, err := client.Transfer(context.Background(), testTransferParams(t))
	require.NoError(t, err)
	assert.Equal(t, mock.sendSig, sig)
	assert.Equal(t, 2, mock.blockhashCall)
	assert.Equal(t, 1, mock.sendCalls)
}

func TestTransfer_SubmissionError(t *testing.T) {
	mock := &mockRPC{
		balance: 10_000_000_000,
		sendErr: errors.New("node rejected transaction"),
	}
	client := newTestClient(t, mock)

	_, err := client.Transfer(context.Background(), testTransferParams(t))
	assert.ErrorIs(t, err, ErrSubmissionFailed)
}

func TestTransfer_ConfirmationTimeout(t *testing.T) {
	mock := &mockRPC{
		balance:  10_000_000_000,
		statuses: []*rpc.SignatureStatusesResult{nil}, // never confirms
	}
	client := newTestClient(t, mock)
	client.confirmTimeout = 10 * time.Millisecond

	_, err := client.Transfer(context.Background(), testTransferParams(t))
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
	// Exactly one submission: a timed-out transfer is never resubmitted.
	assert.Equal(t, 1, mock.sendCalls)
}

func TestTransfer_ConfirmedAfterPolling(t *testing.T) {
	mock := &mockRPC{
		balance: 10_000_000_000,
		statuses: []*rpc.SignatureStatusesResult{
			nil,
			{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
			{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
		},
	}
	client := newTestClient(t, mock)

	_, err := client.Transfer(context.Background(), testTransferParams(t))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mock.statusCalls, 3)
}

func TestTransfer_OnChainFailureSurfaced(t *testing.T) {
	mock := &mockRPC{
		balance: 10_000_000_000,
		statuses: []*rpc.SignatureStatusesResult{
			{Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
		},
	}
	client := newTestClient(t, mock)

	_, err := client.Transfer(context.Background(), testTransferParams(t))
	assert.ErrorIs(t, err, ErrSubmissionFailed)
}
