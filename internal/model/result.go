package model

// ResultSource names the resolution layer that produced a result.
type ResultSource string

const (
	SourceStaticTable    ResultSource = "static-table"
	SourceRegistry       ResultSource = "registry"
	SourceCache          ResultSource = "cache"
	SourceMissRegistry   ResultSource = "miss-registry"
	SourceLiveFetch      ResultSource = "live-fetch"
	SourceLiveFetchError ResultSource = "live-fetch-error"
)

// DefaultRegistryThreshold is the minimum confidence for permanent storage.
const DefaultRegistryThreshold = 80

// Status strings reported to callers.
const (
	StatusFound          = "Found"
	StatusNoBirthDate    = "Birth date not found on Wikipedia"
	StatusPageNotFound   = "Wikipedia page not found"
	StatusLookupFailed   = "Lookup failed"
	statusKnownMissPrefx = "Known miss"
)

// KnownMissStatus formats the status for a miss-registry short circuit.
func KnownMissStatus(reason MissReason) string {
	return statusKnownMissPrefx + " (" + string(reason) + ")"
}

// BiographicalResult is the outcome of resolving one name.
//
// Found reports whether a knowledge-source page was located. A result with
// Found=false never carries birth date fields, and Confidence is zero
// unless a birth date is present.
type BiographicalResult struct {
	Name          string           `json:"name"`
	Found         bool             `json:"found"`
	BirthDate     Optional[string] `json:"birth_date,omitzero"`
	BirthDateISO  Optional[string] `json:"birth_date_iso,omitzero"`
	WikipediaURL  Optional[string] `json:"wikipedia_url,omitzero"`
	Confidence    int              `json:"confidence"`
	PatternSource string           `json:"pattern_source,omitempty"`
	Status        string           `json:"status"`
	Source        ResultSource     `json:"result_source"`
	MatchedAs     string           `json:"matched_as,omitempty"`
	MissReason    MissReason       `json:"miss_reason,omitempty"`
	EntityType    EntityType       `json:"entity_type,omitempty"`
	SeenCount     int              `json:"seen_count,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// HasBirthDate reports whether an ISO birth date is populated.
func (r BiographicalResult) HasBirthDate() bool {
	iso, ok := r.BirthDateISO.Get()
	return ok && iso != ""
}

// Qualifies reports whether the result clears the bar for the persistent
// registry: found, carrying an ISO birth date, confidence >= minConfidence.
func (r BiographicalResult) Qualifies(minConfidence int) bool {
	return r.Found && r.HasBirthDate() && r.Confidence >= minConfidence
}

// QualifiesForRegistry applies the default registry threshold.
func QualifiesForRegistry(r BiographicalResult) bool {
	return r.Qualifies(DefaultRegistryThreshold)
}

// WithSource returns a copy of r attributed to a different layer.
func (r BiographicalResult) WithSource(src ResultSource) BiographicalResult {
	r.Source = src
	return r
}
