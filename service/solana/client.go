package solana

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solmint/launchpad/service/metrics"
	"github.com/solmint/launchpad/service/retry"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetBalance(
		ctx context.Context,
		account solanago.PublicKey,
		commitment rpc.CommitmentType,
	) (*rpc.GetBalanceResult, error)

	GetLatestBlockhash(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)

	SendTransactionWithOpts(
		ctx context.Context,
		transaction *solanago.Transaction,
		opts rpc.TransactionOpts,
	) (solanago.Signature, error)

	GetSignatureStatuses(
		ctx context.Context,
		searchTransactionHistory bool,
		transactionSignatures ...solanago.Signature,
	) (*rpc.GetSignatureStatusesResult, error)
}

// NewRPCClient creates a production RPC client for the given endpoint.
func NewRPCClient(endpoint string) *rpc.Client {
	return rpc.New(endpoint)
}

// Client performs funding transfers: moving a fixed amount of SOL from the
// agent wallet to a freshly generated spend keypair.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // RPC endpoint identifier for metrics

	confirmTimeout      time.Duration
	confirmPollInterval time.Duration
	blockhashRetry      retry.Policy
}

// NewClient creates a new funding client. The endpoint parameter is used for
// metrics labeling. If m is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, confirmTimeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if confirmTimeout <= 0 {
		confirmTimeout = 90 * time.Second
	}
	return &Client{
		rpc:                 rpcClient,
		logger:              logger,
		metrics:             m,
		endpoint:            endpoint,
		confirmTimeout:      confirmTimeout,
		confirmPollInterval: 2 * time.Second,
		blockhashRetry: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.Linear(2 * time.Second),
		},
	}
}

// Transfer moves params.Lamports from params.From to params.To and waits for
// network confirmation, returning the transaction signature.
//
// The funding account's balance is checked before the transaction is built;
// ErrInsufficientFunds means nothing was submitted. A confirmation timeout is
// surfaced as ErrConfirmationTimeout and is deliberately not retried here:
// resubmitting a transfer risks paying twice.
func (c *Client) Transfer(ctx context.Context, params TransferParams) (solanago.Signature, error) {
	from := params.From.PublicKey()

	c.logger.DebugContext(ctx, "starting funding transfer",
		"from", from.String(),
		"to", params.To.String(),
		"lamports", params.Lamports,
	)

	// Precondition: the funding account must cover the transfer.
	balance, err := c.getBalance(ctx, from)
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("failed to check funding balance: %w", err)
	}
	if balance < params.Lamports {
		c.logger.WarnContext(ctx, "funding account balance too low",
			"from", from.String(),
			"balance", balance,
			"required", params.Lamports,
		)
		return solanago.Signature{}, fmt.Errorf("%w: have %d lamports, need %d", ErrInsufficientFunds, balance, params.Lamports)
	}

	// Fetch a recent blockhash with bounded retries. Each attempt fetches a
	// fresh hash, which also refreshes the validity window.
	var blockhash solanago.Hash
	err = c.blockhashRetry.Do(ctx, func(ctx context.Context) error {
		start := time.Now()
		result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
		c.recordRPCCall("GetLatestBlockhash", err, time.Since(start))
		if err != nil {
			c.logger.WarnContext(ctx, "failed to fetch blockhash, will retry", "error", err)
			return err
		}
		blockhash = result.Value.Blockhash
		return nil
	})
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("%w: could not fetch recent blockhash: %v", ErrSubmissionFailed, err)
	}

	// Build and sign the single transfer transaction.
	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{
			system.NewTransferInstruction(params.Lamports, from, params.To).Build(),
		},
		blockhash,
		solanago.TransactionPayer(from),
	)
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("%w: failed to build transaction: %v", ErrSubmissionFailed, err)
	}

	_, err = tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		if key.Equals(from) {
			return &params.From
		}
		return nil
	})
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("%w: failed to sign transaction: %v", ErrSubmissionFailed, err)
	}

	start := time.Now()
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	c.recordRPCCall("SendTransaction", err, time.Since(start))
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	c.logger.InfoContext(ctx, "funding transfer submitted",
		"signature", sig.String(),
		"to", params.To.String(),
		"lamports", params.Lamports,
	)

	if err := c.awaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}

	c.logger.InfoContext(ctx, "funding transfer confirmed", "signature", sig.String())
	return sig, nil
}

// getBalance returns the account balance in lamports.
func (c *Client) getBalance(ctx context.Context, account solanago.PublicKey) (uint64, error) {
	start := time.Now()
	result, err := c.rpc.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	c.recordRPCCall("GetBalance", err, time.Since(start))
	if err != nil {
		return 0, err
	}
	return result.Value, nil
}

// awaitConfirmation polls signature status until the transaction is confirmed
// or finalized, or the confirmation window closes.
func (c *Client) awaitConfirmation(ctx context.Context, sig solanago.Signature) error {
	deadline := time.Now().Add(c.confirmTimeout)

	for {
		if time.Now().After(deadline) {
			c.logger.ErrorContext(ctx, "confirmation window closed",
				"signature", sig.String(),
				"timeout", c.confirmTimeout,
			)
			return fmt.Errorf("%w: signature %s", ErrConfirmationTimeout, sig)
		}

		start := time.Now()
		statuses, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		c.recordRPCCall("GetSignatureStatuses", err, time.Since(start))
		if err != nil {
			// Transient status-poll failures are absorbed by the next tick.
			c.logger.WarnContext(ctx, "failed to poll signature status", "signature", sig.String(), "error", err)
		} else if len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: transaction failed on chain: %v", ErrSubmissionFailed, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		select {
		case <-time.After(c.confirmPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) recordRPCCall(method string, err error, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, duration.Seconds())
}
