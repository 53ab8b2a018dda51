package solana

import (
	"errors"

	solanago "github.com/gagliardetto/solana-go"
)

var (
	// ErrInsufficientFunds is returned when the funding account's balance is
	// below the required amount. The check happens before the transaction is
	// built, so no RPC write call is ever made. It is a precondition check,
	// not a race-free guarantee.
	ErrInsufficientFunds = errors.New("insufficient funds in funding account")

	// ErrSubmissionFailed is returned after exhausting blockhash-fetch
	// retries or when the signed transaction cannot be submitted.
	ErrSubmissionFailed = errors.New("transaction submission failed")

	// ErrConfirmationTimeout is returned when a submitted transaction does
	// not confirm within the configured window. The transfer may still land:
	// callers must treat this as ambiguous and reconcile manually, never
	// resubmit.
	ErrConfirmationTimeout = errors.New("transaction confirmation timed out")
)

// TransferParams describes a single native-SOL transfer.
type TransferParams struct {
	// From signs the transfer and pays the fee.
	From solanago.PrivateKey

	// To receives the lamports.
	To solanago.PublicKey

	// Lamports is the amount to move.
	Lamports uint64
}
