package pump

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solmint/launchpad/service/metrics"
	"github.com/solmint/launchpad/service/retry"
)

const (
	// maxRetries is the total number of create-and-buy (and buy-back)
	// attempts before the last error propagates.
	maxRetries = 3

	// retryDelay is the fixed pause between attempts.
	retryDelay = 2 * time.Second
)

// Service wraps a Launcher with the bounded retry policy shared by the
// create-and-buy and buy-back steps. On-chain success is irreversible:
// nothing here rolls a mint back when a later step fails.
type Service struct {
	launcher Launcher
	policy   retry.Policy
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService creates a Service around the given launcher.
// If m is nil, no metrics will be recorded.
func NewService(launcher Launcher, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		launcher: launcher,
		policy: retry.Policy{
			MaxAttempts: maxRetries,
			Backoff:     retry.Fixed(retryDelay),
		},
		metrics: m,
		logger:  logger,
	}
}

// Launch runs create-and-buy with up to maxRetries attempts. The last
// attempt's error propagates wrapped in ErrLaunchFailed.
func (s *Service) Launch(ctx context.Context, params LaunchParams) (*LaunchResult, error) {
	var result *LaunchResult
	attempt := 0

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		s.logger.InfoContext(ctx, "attempting token creation",
			"attempt", attempt,
			"name", params.Metadata.Name,
			"symbol", params.Metadata.Symbol,
		)

		var err error
		result, err = s.launcher.CreateAndBuy(ctx, params)
		if err != nil {
			s.logger.WarnContext(ctx, "token creation attempt failed",
				"attempt", attempt,
				"error", err,
			)
			s.recordAttempt("create_and_buy", false)
			return err
		}
		s.recordAttempt("create_and_buy", true)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	s.logger.InfoContext(ctx, "token created",
		"mint", result.MintPublicKey,
		"signature", result.Signature,
		"token_url", result.TokenURL,
	)
	return result, nil
}

// Buyback runs the secondary purchase with the same retry policy.
func (s *Service) Buyback(ctx context.Context, params BuybackParams) (string, error) {
	var signature string
	attempt := 0

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		s.logger.InfoContext(ctx, "attempting buy-back",
			"attempt", attempt,
			"mint", params.Mint.String(),
			"lamports", params.Lamports,
		)

		var err error
		signature, err = s.launcher.Buy(ctx, params)
		if err != nil {
			s.logger.WarnContext(ctx, "buy-back attempt failed",
				"attempt", attempt,
				"error", err,
			)
			s.recordAttempt("buyback", false)
			return err
		}
		s.recordAttempt("buyback", true)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBuybackFailed, err)
	}

	s.logger.InfoContext(ctx, "buy-back complete",
		"mint", params.Mint.String(),
		"signature", signature,
	)
	return signature, nil
}

func (s *Service) recordAttempt(operation string, success bool) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	s.metrics.RecordLaunchAttempt(operation, status)
}
