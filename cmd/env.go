package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/cache"
	"github.com/sells-group/polycheck/internal/config"
	"github.com/sells-group/polycheck/internal/metrics"
	"github.com/sells-group/polycheck/internal/miss"
	"github.com/sells-group/polycheck/internal/ratelimit"
	"github.com/sells-group/polycheck/internal/registry"
	"github.com/sells-group/polycheck/internal/resilience"
	"github.com/sells-group/polycheck/internal/resolver"
	"github.com/sells-group/polycheck/internal/static"
	"github.com/sells-group/polycheck/internal/store"
	"github.com/sells-group/polycheck/pkg/wikipedia"
)

// resolverEnv holds the store, the resolution layers and the resolver
// needed by the resolve/crawl/serve commands.
type resolverEnv struct {
	Store    store.Store
	Registry *registry.Registry
	Cache    *cache.Cache
	Misses   *miss.Registry
	Resolver *resolver.Resolver
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Close waits for background registry writes and releases the store.
func (e *resolverEnv) Close() {
	if e.Resolver != nil {
		e.Resolver.Wait()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	opts := store.Options{
		Driver:      c.Store.Driver,
		DatabaseURL: c.Store.DatabaseURL,
		RedisURL:    c.Store.RedisURL,
	}
	if c.Store.MaxConns > 0 || c.Store.MinConns > 0 {
		opts.Pool = &store.PoolConfig{MaxConns: c.Store.MaxConns, MinConns: c.Store.MinConns}
	}
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s store", c.Store.Driver)
	}
	return st, nil
}

// initLayers builds the registry, cache and miss registry over st without
// a knowledge-source client. Used by the maintenance commands.
func initLayers(st store.Store, c *config.Config) (*registry.Registry, *cache.Cache, *miss.Registry) {
	reg := registry.New(st, registry.WithThreshold(c.Resolver.RegistryThreshold))
	ch := cache.New(st, c.Resolver.CacheTTL())
	misses := miss.New(st, c.Resolver.MissCooldown())
	return reg, ch, misses
}

// initResolver opens the store and wires every resolution layer, the
// Wikipedia client and its limiter, retry policy and circuit breaker.
// Callers should defer env.Close().
func initResolver(ctx context.Context, mode string) (*resolverEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	table, err := loadStaticTable(cfg.Resolver.StaticTablePath)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	reg, ch, misses := initLayers(st, cfg)

	limiter := ratelimit.New(ratelimit.Config{
		Name:                 "wikipedia",
		MaxRequestsPerSecond: cfg.Wikipedia.MaxRequestsPerSecond,
		MaxQueueSize:         cfg.Wikipedia.MaxQueueSize,
		OnReject:             m.IncrementRejections,
	})

	wiki := wikipedia.NewClient(
		wikipedia.WithBaseURL(cfg.Wikipedia.BaseURL),
		wikipedia.WithUserAgent(cfg.Wikipedia.UserAgent),
		wikipedia.WithTimeout(time.Duration(cfg.Wikipedia.TimeoutSecs)*time.Second),
	)

	retry := resilience.FromRetryConfig(cfg.Retry.MaxRetries, cfg.Retry.BaseDelayMs, cfg.Retry.MaxDelayMs)
	breaker := resilience.NewCircuitBreaker(resilience.FromCircuitConfig(cfg.Circuit.FailureThreshold, cfg.Circuit.ResetTimeoutSecs))

	r := resolver.New(resolver.Deps{
		Static:       table,
		Registry:     reg,
		Cache:        ch,
		Misses:       misses,
		Wiki:         wiki,
		Limiter:      limiter,
		Breaker:      breaker,
		Metrics:      m,
		Retry:        &retry,
		BatchSize:    cfg.Resolver.BatchSize,
		MaxBatchSize: cfg.Resolver.MaxBatchSize,
	})

	zap.L().Info("resolver initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Int("static_entries", table.Len()),
		zap.Int("registry_threshold", reg.Threshold()),
		zap.Duration("cache_ttl", ch.TTL()),
		zap.Duration("miss_cooldown", misses.Cooldown()),
	)

	return &resolverEnv{
		Store:    st,
		Registry: reg,
		Cache:    ch,
		Misses:   misses,
		Resolver: r,
		Metrics:  m,
		Gatherer: promReg,
	}, nil
}

func loadStaticTable(path string) (*static.Table, error) {
	if path == "" {
		return static.Default()
	}
	t, err := static.Load(path)
	if err != nil {
		return nil, eris.Wrapf(err, "load static table %s", path)
	}
	return t, nil
}
