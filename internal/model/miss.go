package model

import "time"

// MissReason classifies why a lookup did not produce a qualifying result.
type MissReason string

const (
	MissNotFound      MissReason = "not-found"
	MissNoBirthDate   MissReason = "no-birthdate"
	MissLowConfidence MissReason = "low-confidence"
	MissAmbiguous     MissReason = "ambiguous"
	MissNotAPerson    MissReason = "not-a-person"
)

// EntityType is the heuristic classification of a name.
type EntityType string

const (
	EntityUnknown      EntityType = "unknown"
	EntityPerson       EntityType = "person"
	EntityBand         EntityType = "band"
	EntityOrganization EntityType = "organization"
	EntityRole         EntityType = "role"
	EntityFictional    EntityType = "fictional"
)

// MaxSampleMarketTitles bounds MissEntry.SampleMarketTitles.
const MaxSampleMarketTitles = 3

// MissEntry records a lookup that failed to produce a qualifying result.
type MissEntry struct {
	OriginalName         string              `json:"original_name"`
	Reason               MissReason          `json:"reason"`
	FirstSeenAt          time.Time           `json:"first_seen_at"`
	LastSeenAt           time.Time           `json:"last_seen_at"`
	SeenCount            int                 `json:"seen_count"`
	EntityType           EntityType          `json:"entity_type"`
	EntityTypeConfidence int                 `json:"entity_type_confidence"`
	SampleMarketTitles   []string            `json:"sample_market_titles"`
	WikipediaURL         Optional[string]    `json:"wikipedia_url,omitzero"`
	ResolvedBirthDate    Optional[string]    `json:"resolved_birth_date,omitzero"`
	ResolvedAt           Optional[time.Time] `json:"resolved_at,omitzero"`
	Notes                Optional[string]    `json:"notes,omitzero"`
}

// Active reports whether the entry still suppresses live fetches at now.
func (e MissEntry) Active(now time.Time, cooldown time.Duration) bool {
	return now.Sub(e.LastSeenAt) < cooldown
}

// Resolved reports whether a manual birth date has been attached.
func (e MissEntry) Resolved() bool {
	return e.ResolvedBirthDate.Valid()
}
