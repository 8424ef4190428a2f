package markets

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/ratelimit"
	"github.com/sells-group/polycheck/internal/resilience"
	"github.com/sells-group/polycheck/pkg/polymarket"
)

// DefaultPageSize is the Gamma page size used by Fetcher.
const DefaultPageSize = 100

// ErrMarketNotFound is returned by FetchBySlug for an unknown slug.
var ErrMarketNotFound = eris.New("markets: market not found")

// Fetcher pages through active markets behind a rate limiter.
type Fetcher struct {
	client   polymarket.Client
	limiter  *ratelimit.Limiter
	retry    resilience.RetryConfig
	pageSize int
}

// NewFetcher creates a Fetcher. A non-positive pageSize uses
// DefaultPageSize.
func NewFetcher(client polymarket.Client, limiter *ratelimit.Limiter, retry resilience.RetryConfig, pageSize int) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Fetcher{client: client, limiter: limiter, retry: retry, pageSize: pageSize}
}

// FetchActive returns up to limit active markets, requesting pages until
// the source runs out or limit is reached.
func (f *Fetcher) FetchActive(ctx context.Context, limit int) ([]polymarket.Market, error) {
	cfg := f.retry
	cfg.OnRetry = resilience.RetryLogger("polymarket", "list_markets")

	var out []polymarket.Market
	for offset := 0; limit <= 0 || len(out) < limit; offset += f.pageSize {
		size := f.pageSize
		if limit > 0 {
			size = min(size, limit-len(out))
		}

		page, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]polymarket.Market, error) {
			return ratelimit.Do(ctx, f.limiter, func(ctx context.Context) ([]polymarket.Market, error) {
				return f.client.ListMarkets(ctx, size, offset)
			})
		})
		if err != nil {
			return out, eris.Wrapf(err, "markets: fetch page at offset %d", offset)
		}
		zap.L().Debug("markets: fetched page",
			zap.Int("offset", offset), zap.Int("count", len(page)))

		out = append(out, page...)
		if len(page) < size {
			break
		}
	}
	return out, nil
}

// FetchBySlug returns the named markets in order.
func (f *Fetcher) FetchBySlug(ctx context.Context, slugs ...string) ([]polymarket.Market, error) {
	cfg := f.retry
	cfg.OnRetry = resilience.RetryLogger("polymarket", "get_market")

	out := make([]polymarket.Market, 0, len(slugs))
	for _, slug := range slugs {
		m, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*polymarket.Market, error) {
			return ratelimit.Do(ctx, f.limiter, func(ctx context.Context) (*polymarket.Market, error) {
				return f.client.GetMarket(ctx, slug)
			})
		})
		if err != nil {
			return out, eris.Wrapf(err, "markets: fetch %s", slug)
		}
		if m == nil {
			return out, eris.Wrapf(ErrMarketNotFound, "markets: %s", slug)
		}
		out = append(out, *m)
	}
	return out, nil
}
