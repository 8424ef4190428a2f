package model

// SourceKind describes where in a market a person's name was found.
type SourceKind string

const (
	SourceKindOutcome SourceKind = "outcome"
	SourceKindTitle   SourceKind = "title"
)

// MarketRef links a person to a market they appear in.
type MarketRef struct {
	Title       string     `json:"title"`
	Identifier  string     `json:"identifier"`
	Probability *float64   `json:"probability,omitempty"`
	Volume      *float64   `json:"volume,omitempty"`
	EndDate     string     `json:"end_date,omitempty"`
	SourceKind  SourceKind `json:"source_kind"`
}

// Person is a request-scoped candidate extracted from market data.
type Person struct {
	DisplayName   string      `json:"display_name"`
	NormalizedKey string      `json:"normalized_key"`
	Markets       []MarketRef `json:"markets"`
}
