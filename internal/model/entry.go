package model

import "time"

// RegistryEntry is a persisted high-confidence result plus access metadata.
// Entries written for a spelling variant carry CanonicalKey, the key of
// the entry they mirror.
type RegistryEntry struct {
	Name           string             `json:"name"`
	Result         BiographicalResult `json:"result"`
	AddedAt        time.Time          `json:"added_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	AccessCount    int                `json:"access_count"`
	OriginSource   ResultSource       `json:"origin_source,omitempty"`
	NameVariants   []string           `json:"name_variants,omitempty"`
	CanonicalKey   string             `json:"canonical_key,omitempty"`
}

// CacheEntry is a cached lookup outcome, positive or negative.
type CacheEntry struct {
	Result   BiographicalResult `json:"result"`
	CachedAt time.Time          `json:"cached_at"`
}

// Expired reports whether the entry has outlived ttl at now.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CachedAt) >= ttl
}
