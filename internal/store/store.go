// Package store provides the durable key-value collaborator behind the
// registry, cache and miss layers. Values are opaque JSON documents grouped
// by namespace.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Namespace partitions keys by owning layer.
type Namespace string

// Namespaces used by the resolver layers.
const (
	NamespaceRegistry Namespace = "registry"
	NamespaceCache    Namespace = "cache"
	NamespaceMisses   Namespace = "misses"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = eris.New("store: closed")

// Record is one stored key and its JSON value.
type Record struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Store is a namespaced JSON key-value store.
type Store interface {
	// Get returns the value under key, or nil with no error when absent.
	Get(ctx context.Context, ns Namespace, key string) (json.RawMessage, error)
	Put(ctx context.Context, ns Namespace, key string, value json.RawMessage) error
	// Delete reports whether a value was removed.
	Delete(ctx context.Context, ns Namespace, key string) (bool, error)
	// List returns every record in ns ordered by key.
	List(ctx context.Context, ns Namespace) ([]Record, error)

	Migrate(ctx context.Context) error
	Close() error
}

// GetJSON loads and decodes the value under key. It returns nil, nil
// when the key is absent.
func GetJSON[T any](ctx context.Context, s Store, ns Namespace, key string) (*T, error) {
	raw, err := s.Get(ctx, ns, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, eris.Wrapf(err, "store: decode %s/%s", ns, key)
	}
	return &v, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, s Store, ns Namespace, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "store: encode %s/%s", ns, key)
	}
	return s.Put(ctx, ns, key, raw)
}

// ListJSON decodes every record in ns. Records that fail to decode are
// returned as an error rather than skipped.
func ListJSON[T any](ctx context.Context, s Store, ns Namespace) (map[string]T, error) {
	recs, err := s.List(ctx, ns)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(recs))
	for _, r := range recs {
		var v T
		if err := json.Unmarshal(r.Value, &v); err != nil {
			return nil, eris.Wrapf(err, "store: decode %s/%s", ns, r.Key)
		}
		out[r.Key] = v
	}
	return out, nil
}
