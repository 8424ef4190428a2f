package resolver

import "github.com/sells-group/polycheck/internal/model"

// Summary tallies a batch of results.
type Summary struct {
	Total        int                        `json:"total"`
	BirthDates   int                        `json:"birth_dates_found"`
	PageNotFound int                        `json:"page_not_found"`
	NoBirthDate  int                        `json:"no_birth_date"`
	Failed       int                        `json:"failed"`
	BySource     map[model.ResultSource]int `json:"by_source"`
}

// Summarize counts results by outcome and by producing layer. Outcomes
// are read from status and miss reason so results replayed from the cache
// or the miss registry count the same as the live lookup that produced
// them.
func Summarize(results []model.BiographicalResult) Summary {
	s := Summary{Total: len(results), BySource: make(map[model.ResultSource]int)}
	for _, r := range results {
		s.BySource[r.Source]++
		switch {
		case r.HasBirthDate():
			s.BirthDates++
		case r.Status == model.StatusLookupFailed, r.Source == model.SourceLiveFetchError:
			s.Failed++
		case r.Found, r.MissReason == model.MissNoBirthDate, r.MissReason == model.MissLowConfidence:
			s.NoBirthDate++
		default:
			s.PageNotFound++
		}
	}
	return s
}
