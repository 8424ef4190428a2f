package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/polycheck/internal/extract"
	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/ratelimit"
	"github.com/sells-group/polycheck/internal/resilience"
	"github.com/sells-group/polycheck/pkg/wikipedia"
)

const service = "wikipedia"

// lookup searches the knowledge source for name, fetches the best page
// and extracts a birth date. A nil error means the source answered; the
// result may still be a not-found or no-birthdate outcome.
func (r *Resolver) lookup(ctx context.Context, name string) (model.BiographicalResult, error) {
	titles, err := call(ctx, r, "search", func(ctx context.Context) ([]string, error) {
		return r.wiki.Search(ctx, name, wikipedia.SearchLimit)
	})
	if err != nil {
		return model.BiographicalResult{}, err
	}

	title := wikipedia.BestTitle(name, titles)
	if title == "" {
		return pageNotFound(name), nil
	}

	type page struct {
		text string
		ok   bool
	}
	p, err := call(ctx, r, "wikitext", func(ctx context.Context) (page, error) {
		text, ok, err := r.wiki.Wikitext(ctx, title)
		return page{text: text, ok: ok}, err
	})
	if err != nil {
		return model.BiographicalResult{}, err
	}
	if !p.ok {
		return pageNotFound(name), nil
	}

	res := model.BiographicalResult{
		Name:         name,
		Found:        true,
		WikipediaURL: model.Some(wikipedia.PageURL(title)),
		Source:       model.SourceLiveFetch,
	}
	bd, ok := extract.Extract(p.text)
	if !ok {
		res.Status = model.StatusNoBirthDate
		return res, nil
	}
	res.BirthDate = model.Some(bd.Formatted)
	res.BirthDateISO = model.Some(bd.ISO)
	res.Confidence = bd.Confidence
	res.PatternSource = bd.PatternSource
	res.Status = model.StatusFound
	return res, nil
}

func pageNotFound(name string) model.BiographicalResult {
	return model.BiographicalResult{
		Name:   name,
		Found:  false,
		Status: model.StatusPageNotFound,
		Source: model.SourceLiveFetch,
	}
}

// call runs one remote request through retry, then the rate limiter, then
// the circuit breaker. Each attempt takes its own limiter token.
func call[T any](ctx context.Context, r *Resolver, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := r.retry
	cfg.ShouldRetry = shouldRetry
	logRetry := resilience.RetryLogger(service, op)
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		r.metrics.IncrementRetries(service)
		logRetry(attempt, delay, err)
	}

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		return ratelimit.Do(ctx, r.limiter, func(ctx context.Context) (T, error) {
			if r.breaker == nil {
				return fn(ctx)
			}
			return resilience.ExecuteVal(ctx, r.breaker, fn)
		})
	})
}

// shouldRetry retries transport failures only. Queue-full and open-circuit
// rejections are returned at once.
func shouldRetry(err error) bool {
	if errors.Is(err, ratelimit.ErrQueueFull) || errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	return resilience.IsTransient(err)
}

// cacheable reports whether a failed lookup should be cached. Capacity
// rejections and caller cancellation say nothing about the name.
func cacheable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, ratelimit.ErrQueueFull) &&
		!errors.Is(err, resilience.ErrCircuitOpen) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
