package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/solmint/launchpad/service/retry"
)

const (
	// maxAttempts is the total price-probe budget.
	maxAttempts = 5

	// Delay after an attempt that succeeded but found no usable price,
	// and after an attempt that failed outright. New pairs take a while
	// to show up on the aggregator, so empty results get the shorter wait.
	emptyResultDelay  = 3 * time.Second
	requestErrorDelay = 5 * time.Second
)

// errNoPrice marks an attempt that completed but found no positive price.
var errNoPrice = errors.New("no usable price in response")

// DefaultBaseURL is the public DexScreener API.
const DefaultBaseURL = "https://api.dexscreener.com"

// Probe looks up a freshly minted token's price on DexScreener. Lookups are
// strictly best-effort: the probe retries within its budget and then reports
// "price unknown" as a nil price, never as an error.
type Probe struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	policy  retry.Policy
}

// NewProbe creates a price probe against the given base URL (use
// DefaultBaseURL in production).
func NewProbe(baseURL string, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		policy: retry.Policy{
			MaxAttempts: maxAttempts,
			Backoff: func(attempt int, err error) time.Duration {
				if errors.Is(err, errNoPrice) {
					return emptyResultDelay
				}
				return requestErrorDelay
			},
		},
	}
}

// pairsResponse mirrors the subset of the DexScreener token-pairs payload we read.
type pairsResponse struct {
	Pairs []struct {
		PriceNative string `json:"priceNative"`
		PriceUSD    string `json:"priceUsd"`
	} `json:"pairs"`
}

// InitialPrice returns the first strictly-positive native (SOL) price found
// for the mint, or nil when the retry budget yields nothing. It never returns
// an error for lookup failures; only context cancellation aborts early.
func (p *Probe) InitialPrice(ctx context.Context, mint string) *float64 {
	var price *float64

	err := p.policy.Do(ctx, func(ctx context.Context) error {
		found, err := p.fetchPrice(ctx, mint)
		if err != nil {
			p.logger.WarnContext(ctx, "price lookup attempt failed", "mint", mint, "error", err)
			return err
		}
		if found == nil {
			p.logger.DebugContext(ctx, "no price listed yet", "mint", mint)
			return errNoPrice
		}
		price = found
		return nil
	})
	if err != nil {
		p.logger.InfoContext(ctx, "price unknown after retries", "mint", mint, "attempts", maxAttempts)
		return nil
	}

	p.logger.InfoContext(ctx, "initial price found", "mint", mint, "price_sol", *price)
	return price
}

func (p *Probe) fetchPrice(ctx context.Context, mint string) (*float64, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", p.baseURL, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, pair := range body.Pairs {
		value, err := strconv.ParseFloat(pair.PriceNative, 64)
		if err != nil {
			continue
		}
		if value > 0 {
			return &value, nil
		}
	}

	return nil, nil
}
