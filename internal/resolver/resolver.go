// Package resolver threads a name through the static table, registry,
// cache and miss registry in that order, falling back to a rate-limited
// live lookup and writing the outcome back to the appropriate layers.
package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/cache"
	"github.com/sells-group/polycheck/internal/metrics"
	"github.com/sells-group/polycheck/internal/miss"
	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/names"
	"github.com/sells-group/polycheck/internal/ratelimit"
	"github.com/sells-group/polycheck/internal/registry"
	"github.com/sells-group/polycheck/internal/resilience"
	"github.com/sells-group/polycheck/internal/static"
	"github.com/sells-group/polycheck/pkg/wikipedia"
)

// Deps are the collaborators a Resolver is built from. Static, Registry,
// Cache, Misses, Wiki and Limiter are required.
type Deps struct {
	Static   *static.Table
	Registry *registry.Registry
	Cache    *cache.Cache
	Misses   *miss.Registry
	Wiki     wikipedia.Client
	Limiter  *ratelimit.Limiter

	// Breaker is optional; nil disables circuit breaking.
	Breaker *resilience.CircuitBreaker
	// Metrics is optional; nil records into a private registry.
	Metrics *metrics.Metrics
	// Retry overrides DefaultRetryConfig when non-nil.
	Retry *resilience.RetryConfig

	BatchSize    int
	MaxBatchSize int
}

// Default batch sizing.
const (
	DefaultBatchSize    = 5
	DefaultMaxBatchSize = 20
)

// Resolver is the resolution orchestrator. It holds no per-name state and
// is safe for concurrent use.
type Resolver struct {
	static   *static.Table
	registry *registry.Registry
	cache    *cache.Cache
	misses   *miss.Registry
	wiki     wikipedia.Client
	limiter  *ratelimit.Limiter
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.Metrics
	retry    resilience.RetryConfig

	batchSize    int
	maxBatchSize int
}

// New creates a Resolver from deps.
func New(deps Deps) *Resolver {
	r := &Resolver{
		static:       deps.Static,
		registry:     deps.Registry,
		cache:        deps.Cache,
		misses:       deps.Misses,
		wiki:         deps.Wiki,
		limiter:      deps.Limiter,
		breaker:      deps.Breaker,
		metrics:      deps.Metrics,
		retry:        resilience.DefaultRetryConfig(),
		batchSize:    deps.BatchSize,
		maxBatchSize: deps.MaxBatchSize,
	}
	if deps.Retry != nil {
		r.retry = *deps.Retry
	}
	if r.metrics == nil {
		r.metrics = metrics.Nop()
	}
	if r.batchSize <= 0 {
		r.batchSize = DefaultBatchSize
	}
	if r.maxBatchSize < r.batchSize {
		r.maxBatchSize = max(DefaultMaxBatchSize, r.batchSize)
	}
	return r
}

// MarketContext describes where a name was encountered. It is recorded on
// miss entries as a sample market title.
type MarketContext struct {
	Title string
}

// Resolve returns the best available result for name. It never fails:
// transport and capacity problems surface as a found=false result with
// Source live-fetch-error.
func (r *Resolver) Resolve(ctx context.Context, name string, mc *MarketContext) model.BiographicalResult {
	res := r.resolve(ctx, name, mc)
	res.Name = name
	r.metrics.ObserveResolution(res.Source)
	return res
}

func (r *Resolver) resolve(ctx context.Context, name string, mc *MarketContext) model.BiographicalResult {
	log := zap.L().With(zap.String("name", name))

	if names.Normalize(name) == "" {
		return model.BiographicalResult{
			Name:       name,
			Found:      false,
			Status:     model.StatusPageNotFound,
			Source:     model.SourceLiveFetch,
			MissReason: model.MissNotFound,
			Error:      "empty name",
		}
	}

	if res, ok := r.static.Lookup(name); ok {
		log.Debug("resolver: static table hit", zap.String("matched_as", res.MatchedAs))
		return res
	}

	if res, ok := r.registry.Get(ctx, name); ok {
		log.Debug("resolver: registry hit")
		return res
	}

	if res, ok := r.cache.Get(ctx, name); ok {
		log.Debug("resolver: cache hit", zap.Bool("found", res.Found))
		if r.registry.Qualifies(res) && r.registry.Add(ctx, name, res, model.SourceCache) {
			r.metrics.IncrementPromotions()
			log.Info("resolver: promoted cached result to registry",
				zap.Int("confidence", res.Confidence))
		}
		return res
	}

	if entry, active := r.misses.Check(ctx, name); entry != nil && active {
		log.Debug("resolver: known miss, skipping live fetch",
			zap.String("reason", string(entry.Reason)),
			zap.Int("seen_count", entry.SeenCount))
		return knownMiss(name, entry)
	}

	return r.liveResolve(ctx, name, mc)
}

func knownMiss(name string, e *model.MissEntry) model.BiographicalResult {
	return model.BiographicalResult{
		Name:         name,
		Found:        false,
		WikipediaURL: e.WikipediaURL,
		Status:       model.KnownMissStatus(e.Reason),
		Source:       model.SourceMissRegistry,
		MissReason:   e.Reason,
		EntityType:   e.EntityType,
		SeenCount:    e.SeenCount,
	}
}

// liveResolve fetches name from the knowledge source and writes back:
// every completed lookup goes to the cache, qualifying results to the
// registry and the rest to the miss registry. Transport failures are
// cached but never recorded as misses.
func (r *Resolver) liveResolve(ctx context.Context, name string, mc *MarketContext) model.BiographicalResult {
	log := zap.L().With(zap.String("name", name))
	start := time.Now()

	res, err := r.lookup(ctx, name)
	if err != nil {
		r.metrics.ObserveLiveFetch("error", time.Since(start))
		res = model.BiographicalResult{
			Name:   name,
			Found:  false,
			Status: model.StatusLookupFailed,
			Source: model.SourceLiveFetchError,
			Error:  err.Error(),
		}
		if cacheable(ctx, err) {
			r.cache.Set(ctx, name, res)
			log.Warn("resolver: live fetch failed", zap.Error(err))
		} else {
			log.Warn("resolver: live fetch rejected", zap.Error(err))
		}
		return res
	}
	r.metrics.ObserveLiveFetch(fetchOutcome(res), time.Since(start))

	r.cache.Set(ctx, name, res)

	if r.registry.Qualifies(res) {
		if r.registry.Add(ctx, name, res, model.SourceLiveFetch) {
			r.metrics.IncrementPromotions()
			log.Info("resolver: added to registry",
				zap.String("birth_date", res.BirthDateISO.OrZero()),
				zap.Int("confidence", res.Confidence))
		}
		return res
	}

	reason := missReason(res)
	opts := miss.AddOptions{WikipediaURL: res.WikipediaURL.OrZero()}
	if mc != nil {
		opts.SampleMarketTitle = mc.Title
	}
	entry := r.misses.Add(ctx, name, reason, opts)
	r.metrics.IncrementMisses(reason)
	log.Info("resolver: recorded miss",
		zap.String("reason", string(reason)),
		zap.String("entity_type", string(entry.EntityType)),
		zap.Int("seen_count", entry.SeenCount))

	res.MissReason = reason
	res.EntityType = entry.EntityType
	return res
}

// missReason classifies a non-qualifying live result.
func missReason(res model.BiographicalResult) model.MissReason {
	switch {
	case res.HasBirthDate():
		return model.MissLowConfidence
	case res.Found:
		return model.MissNoBirthDate
	default:
		return model.MissNotFound
	}
}

func fetchOutcome(res model.BiographicalResult) string {
	switch {
	case res.HasBirthDate():
		return "found"
	case res.Found:
		return "no-birthdate"
	default:
		return "not-found"
	}
}

// Wait blocks until background registry bookkeeping has finished.
func (r *Resolver) Wait() {
	r.registry.Wait()
}
