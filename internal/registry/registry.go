// Package registry is the persistent store of high-confidence results.
// Entries are written only for qualifying results and are never expired;
// removal is a manual correction.
package registry

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/names"
	"github.com/sells-group/polycheck/internal/store"
)

// ErrNotFound is returned by manual operations on an unknown name.
var ErrNotFound = eris.New("registry: entry not found")

const bumpTimeout = 5 * time.Second

// Registry wraps a store namespace with qualification and merge rules.
// Storage failures on the read and write paths are logged and reported
// as a miss or a failed write, never returned.
type Registry struct {
	store     store.Store
	threshold int
	now       func() time.Time

	bumps sync.WaitGroup
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithThreshold sets the minimum confidence for Add.
func WithThreshold(min int) Option {
	return func(r *Registry) {
		if min > 0 {
			r.threshold = min
		}
	}
}

// New creates a Registry over s.
func New(s store.Store, opts ...Option) *Registry {
	r := &Registry{
		store:     s,
		threshold: model.DefaultRegistryThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the configured qualification confidence.
func (r *Registry) Threshold() int { return r.threshold }

// Qualifies reports whether res may be written by Add.
func (r *Registry) Qualifies(res model.BiographicalResult) bool {
	return res.Qualifies(r.threshold)
}

func (r *Registry) load(ctx context.Context, key string) (*model.RegistryEntry, error) {
	return store.GetJSON[model.RegistryEntry](ctx, r.store, store.NamespaceRegistry, key)
}

// Get returns the stored result for name by exact normalized key. A
// variant key resolves to its canonical entry's current result. A hit
// schedules an access bump in the background; its outcome never affects
// the read.
func (r *Registry) Get(ctx context.Context, name string) (model.BiographicalResult, bool) {
	key := names.Normalize(name)
	if key == "" {
		return model.BiographicalResult{}, false
	}
	entry, err := r.load(ctx, key)
	if err != nil {
		zap.L().Warn("registry: read failed, treating as miss",
			zap.String("name", name), zap.Error(err))
		return model.BiographicalResult{}, false
	}
	if entry == nil {
		return model.BiographicalResult{}, false
	}

	target := key
	result := entry.Result
	if entry.CanonicalKey != "" {
		target = entry.CanonicalKey
		canonical, err := r.load(ctx, target)
		switch {
		case err != nil:
			zap.L().Warn("registry: canonical read failed, using variant copy",
				zap.String("name", name), zap.String("canonical", target), zap.Error(err))
		case canonical != nil:
			result = canonical.Result
		}
	}
	r.bumps.Add(1)
	go func() {
		defer r.bumps.Done()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bumpTimeout)
		defer cancel()
		if err := r.touch(bctx, target); err != nil {
			zap.L().Debug("registry: access bump failed",
				zap.String("key", target), zap.Error(err))
		}
	}()

	return result.WithSource(model.SourceRegistry), true
}

// Wait blocks until background access bumps have finished.
func (r *Registry) Wait() {
	r.bumps.Wait()
}

func (r *Registry) touch(ctx context.Context, key string) error {
	entry, err := r.load(ctx, key)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	entry.LastAccessedAt = r.now().UTC()
	entry.AccessCount++
	return store.PutJSON(ctx, r.store, store.NamespaceRegistry, key, entry)
}

// Add writes res under name if it qualifies and reports whether it did.
// An existing entry keeps its AddedAt, variants and origin (unless the
// origin was never recorded) and has its access count incremented.
// Writes through a variant name land on its canonical entry.
func (r *Registry) Add(ctx context.Context, name string, res model.BiographicalResult, origin model.ResultSource) bool {
	if !r.Qualifies(res) {
		return false
	}
	key := names.Normalize(name)
	if key == "" {
		return false
	}

	now := r.now().UTC()
	entry := model.RegistryEntry{
		Name:           name,
		Result:         res,
		AddedAt:        now,
		LastAccessedAt: now,
		OriginSource:   origin,
	}

	existing, err := r.load(ctx, key)
	if err != nil {
		zap.L().Warn("registry: read before merge failed",
			zap.String("name", name), zap.Error(err))
	}
	if existing != nil && existing.CanonicalKey != "" {
		key = existing.CanonicalKey
		entry.Name = ""
		existing, err = r.load(ctx, key)
		if err != nil {
			zap.L().Warn("registry: canonical read before merge failed",
				zap.String("name", name), zap.String("canonical", key), zap.Error(err))
			return false
		}
	}
	if existing != nil {
		if entry.Name == "" {
			entry.Name = existing.Name
		}
		entry.AddedAt = existing.AddedAt
		entry.AccessCount = existing.AccessCount + 1
		entry.NameVariants = existing.NameVariants
		entry.CanonicalKey = existing.CanonicalKey
		if existing.OriginSource != "" {
			entry.OriginSource = existing.OriginSource
		}
	}
	if entry.Name == "" {
		entry.Name = name
	}

	if err := store.PutJSON(ctx, r.store, store.NamespaceRegistry, key, entry); err != nil {
		zap.L().Warn("registry: write failed",
			zap.String("name", name), zap.Error(err))
		return false
	}
	return true
}

// AddNameVariant links variant to the entry stored under canonical. The
// variant key receives a copy of the canonical payload pointing back at
// it, and canonical records the variant.
func (r *Registry) AddNameVariant(ctx context.Context, variant, canonical string) error {
	vKey := names.Normalize(variant)
	cKey := names.Normalize(canonical)
	if vKey == "" || cKey == "" {
		return eris.New("registry: empty name")
	}
	if vKey == cKey {
		return nil
	}

	entry, err := r.load(ctx, cKey)
	if err != nil {
		return eris.Wrap(err, "registry: load canonical")
	}
	if entry == nil {
		return eris.Wrapf(ErrNotFound, "registry: canonical %q", canonical)
	}
	if entry.CanonicalKey != "" {
		return eris.Errorf("registry: %q is itself a variant of %q", canonical, entry.CanonicalKey)
	}

	pointer := model.RegistryEntry{
		Name:           variant,
		Result:         entry.Result,
		AddedAt:        r.now().UTC(),
		LastAccessedAt: r.now().UTC(),
		OriginSource:   entry.OriginSource,
		CanonicalKey:   cKey,
	}
	if err := store.PutJSON(ctx, r.store, store.NamespaceRegistry, vKey, pointer); err != nil {
		return eris.Wrap(err, "registry: write variant")
	}

	if !slices.Contains(entry.NameVariants, vKey) {
		entry.NameVariants = append(entry.NameVariants, vKey)
		if err := store.PutJSON(ctx, r.store, store.NamespaceRegistry, cKey, entry); err != nil {
			return eris.Wrap(err, "registry: update canonical")
		}
	}
	return nil
}

// Delete removes name. Deleting a canonical entry also removes its
// variants; deleting a variant unlinks it from its canonical entry.
func (r *Registry) Delete(ctx context.Context, name string) error {
	key := names.Normalize(name)
	entry, err := r.load(ctx, key)
	if err != nil {
		return eris.Wrap(err, "registry: load")
	}
	if entry == nil {
		return eris.Wrapf(ErrNotFound, "registry: %q", name)
	}

	if _, err := r.store.Delete(ctx, store.NamespaceRegistry, key); err != nil {
		return eris.Wrap(err, "registry: delete")
	}

	for _, v := range entry.NameVariants {
		if _, err := r.store.Delete(ctx, store.NamespaceRegistry, v); err != nil {
			return eris.Wrapf(err, "registry: delete variant %s", v)
		}
	}

	if entry.CanonicalKey != "" {
		canonical, err := r.load(ctx, entry.CanonicalKey)
		if err != nil {
			return eris.Wrap(err, "registry: load canonical")
		}
		if canonical != nil {
			canonical.NameVariants = slices.DeleteFunc(canonical.NameVariants, func(v string) bool { return v == key })
			if err := store.PutJSON(ctx, r.store, store.NamespaceRegistry, entry.CanonicalKey, canonical); err != nil {
				return eris.Wrap(err, "registry: update canonical")
			}
		}
	}
	return nil
}

// Entry returns the raw entry stored under name, or nil.
func (r *Registry) Entry(ctx context.Context, name string) (*model.RegistryEntry, error) {
	e, err := r.load(ctx, names.Normalize(name))
	return e, eris.Wrap(err, "registry: load")
}

// List returns every entry keyed by normalized name.
func (r *Registry) List(ctx context.Context) (map[string]model.RegistryEntry, error) {
	entries, err := store.ListJSON[model.RegistryEntry](ctx, r.store, store.NamespaceRegistry)
	return entries, eris.Wrap(err, "registry: list")
}
