// Package miss records lookups that produced no qualifying result and
// suppresses repeat live fetches for them during a cooldown window.
package miss

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/extract"
	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/names"
	"github.com/sells-group/polycheck/internal/store"
)

// DefaultCooldown is how long a miss suppresses retries.
const DefaultCooldown = 7 * 24 * time.Hour

// ErrNotFound is returned by ResolveMiss for an unknown name.
var ErrNotFound = eris.New("miss: entry not found")

// Registry wraps a store namespace with cooldown and merge rules.
type Registry struct {
	store    store.Store
	cooldown time.Duration
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New creates a miss Registry over s. A non-positive cooldown uses
// DefaultCooldown.
func New(s store.Store, cooldown time.Duration, opts ...Option) *Registry {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	r := &Registry{store: s, cooldown: cooldown, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cooldown returns the configured suppression window.
func (r *Registry) Cooldown() time.Duration { return r.cooldown }

// Check returns the entry for name, if any, and whether it is still in
// cooldown. Expired entries are returned with active=false.
func (r *Registry) Check(ctx context.Context, name string) (entry *model.MissEntry, active bool) {
	key := names.Normalize(name)
	if key == "" {
		return nil, false
	}
	e, err := store.GetJSON[model.MissEntry](ctx, r.store, store.NamespaceMisses, key)
	if err != nil {
		zap.L().Warn("miss: read failed, treating as absent",
			zap.String("name", name), zap.Error(err))
		return nil, false
	}
	if e == nil {
		return nil, false
	}
	return e, e.Active(r.now(), r.cooldown)
}

// AddOptions carries optional context for Add.
type AddOptions struct {
	WikipediaURL      string
	SampleMarketTitle string
	// EntityType overrides detection when set.
	EntityType model.EntityType
}

// Add records a miss for name, creating the entry or merging into the
// existing one, and returns the stored entry. A name that normalizes to
// nothing is not stored.
func (r *Registry) Add(ctx context.Context, name string, reason model.MissReason, opts AddOptions) model.MissEntry {
	key := names.Normalize(name)
	if key == "" {
		return model.MissEntry{OriginalName: name, Reason: reason, EntityType: model.EntityUnknown}
	}
	now := r.now().UTC()

	existing, err := store.GetJSON[model.MissEntry](ctx, r.store, store.NamespaceMisses, key)
	if err != nil {
		zap.L().Warn("miss: read before merge failed",
			zap.String("name", name), zap.Error(err))
	}

	var e model.MissEntry
	if existing != nil {
		e = *existing
		e.SeenCount++
		e.LastSeenAt = now
		e.Reason = reason
	} else {
		e = model.MissEntry{
			OriginalName: name,
			Reason:       reason,
			FirstSeenAt:  now,
			LastSeenAt:   now,
			SeenCount:    1,
			EntityType:   model.EntityUnknown,
		}
	}

	switch {
	case opts.EntityType != "":
		e.EntityType = opts.EntityType
		e.EntityTypeConfidence = 100
	default:
		if d := DetectEntityType(name); d.Confidence > MinEntityConfidence {
			e.EntityType = d.Type
			e.EntityTypeConfidence = d.Confidence
		}
	}

	if opts.WikipediaURL != "" {
		e.WikipediaURL = model.Some(opts.WikipediaURL)
	}
	if opts.SampleMarketTitle != "" {
		e.SampleMarketTitles = pushTitle(e.SampleMarketTitles, opts.SampleMarketTitle)
	}
	if e.SampleMarketTitles == nil {
		e.SampleMarketTitles = []string{}
	}

	if err := store.PutJSON(ctx, r.store, store.NamespaceMisses, key, e); err != nil {
		zap.L().Warn("miss: write failed",
			zap.String("name", name), zap.Error(err))
	}
	return e
}

// pushTitle appends title as the most recent sample, dropping an earlier
// copy and keeping at most MaxSampleMarketTitles.
func pushTitle(titles []string, title string) []string {
	titles = slices.DeleteFunc(slices.Clone(titles), func(t string) bool { return t == title })
	titles = append(titles, title)
	if over := len(titles) - model.MaxSampleMarketTitles; over > 0 {
		titles = titles[over:]
	}
	return titles
}

// ListOptions filters List.
type ListOptions struct {
	Limit          int
	Reason         model.MissReason
	EntityType     model.EntityType
	UnresolvedOnly bool
}

// List returns entries matching opts, most-seen first.
func (r *Registry) List(ctx context.Context, opts ListOptions) ([]model.MissEntry, error) {
	all, err := store.ListJSON[model.MissEntry](ctx, r.store, store.NamespaceMisses)
	if err != nil {
		return nil, eris.Wrap(err, "miss: list")
	}

	out := make([]model.MissEntry, 0, len(all))
	for _, e := range all {
		if opts.Reason != "" && e.Reason != opts.Reason {
			continue
		}
		if opts.EntityType != "" && e.EntityType != opts.EntityType {
			continue
		}
		if opts.UnresolvedOnly && e.Resolved() {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SeenCount != out[j].SeenCount {
			return out[i].SeenCount > out[j].SeenCount
		}
		return out[i].OriginalName < out[j].OriginalName
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// ResolveMiss attaches a manually researched birth date to name. The
// entry stays in place for audit.
func (r *Registry) ResolveMiss(ctx context.Context, name, birthDateISO, notes string) (model.MissEntry, error) {
	if _, ok := extract.FormatISO(birthDateISO); !ok {
		return model.MissEntry{}, eris.Errorf("miss: invalid birth date %q", birthDateISO)
	}
	key := names.Normalize(name)
	e, err := store.GetJSON[model.MissEntry](ctx, r.store, store.NamespaceMisses, key)
	if err != nil {
		return model.MissEntry{}, eris.Wrap(err, "miss: load")
	}
	if e == nil {
		return model.MissEntry{}, eris.Wrapf(ErrNotFound, "miss: %q", name)
	}

	e.ResolvedBirthDate = model.Some(birthDateISO)
	e.ResolvedAt = model.Some(r.now().UTC())
	if notes != "" {
		e.Notes = model.Some(notes)
	}
	if err := store.PutJSON(ctx, r.store, store.NamespaceMisses, key, e); err != nil {
		return model.MissEntry{}, eris.Wrap(err, "miss: write")
	}
	return *e, nil
}
