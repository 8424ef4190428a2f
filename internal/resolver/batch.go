package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/names"
)

// ResolveAll resolves batch concurrently, at most batchSize at a time,
// and returns results in input order. A non-positive batchSize uses the
// configured default.
func (r *Resolver) ResolveAll(ctx context.Context, batch []string, batchSize int) []model.BiographicalResult {
	out := make([]model.BiographicalResult, len(batch))
	r.fanOut(ctx, len(batch), batchSize, func(ctx context.Context, i int) {
		out[i] = r.Resolve(ctx, batch[i], nil)
	})
	return out
}

// PersonResult pairs a person with their resolution.
type PersonResult struct {
	Person model.Person             `json:"person"`
	Result model.BiographicalResult `json:"result"`
}

// ResolvePeople resolves each person by display name, passing their first
// market title as context.
func (r *Resolver) ResolvePeople(ctx context.Context, people []model.Person, batchSize int) []PersonResult {
	out := make([]PersonResult, len(people))
	r.fanOut(ctx, len(people), batchSize, func(ctx context.Context, i int) {
		p := people[i]
		var mc *MarketContext
		if len(p.Markets) > 0 {
			mc = &MarketContext{Title: p.Markets[0].Title}
		}
		out[i] = PersonResult{Person: p, Result: r.Resolve(ctx, p.DisplayName, mc)}
	})
	return out
}

func (r *Resolver) fanOut(ctx context.Context, n, batchSize int, fn func(ctx context.Context, i int)) {
	if batchSize <= 0 {
		batchSize = r.batchSize
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)
	for i := range n {
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

// SuggestBatchSize sizes the next fan-out from the share of batch already
// cached: at least 80% cached returns maxBatch, at least 50% returns
// twice base (capped at maxBatch), otherwise base.
func SuggestBatchSize(batch []string, cached map[string]bool, base, maxBatch int) int {
	if base <= 0 {
		base = DefaultBatchSize
	}
	if maxBatch < base {
		maxBatch = base
	}
	if len(batch) == 0 {
		return base
	}

	hits := 0
	for _, n := range batch {
		if cached[names.Normalize(n)] {
			hits++
		}
	}
	ratio := float64(hits) / float64(len(batch))
	switch {
	case ratio >= 0.8:
		return maxBatch
	case ratio >= 0.5:
		return min(2*base, maxBatch)
	default:
		return base
	}
}

// SuggestBatchSize applies the package function with the resolver's
// configured sizes and the cache's unexpired keys.
func (r *Resolver) SuggestBatchSize(ctx context.Context, batch []string) int {
	return SuggestBatchSize(batch, r.cache.FreshKeys(ctx), r.batchSize, r.maxBatchSize)
}
