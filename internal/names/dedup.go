package names

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/polycheck/internal/model"
)

// DefaultDedupThreshold is the similarity at which two extracted names are
// treated as the same person.
const DefaultDedupThreshold = 50

// Matches reports whether name and candidate refer to the same person at
// threshold. Besides the similarity score, a bare surname matches a
// multi-word name ending in that surname ("Trump" ~ "Donald Trump"), which
// the substring tier alone scores too low to catch.
func Matches(name, candidate string, threshold int) bool {
	if Similarity(name, candidate) >= threshold {
		return true
	}
	return surnameOnly(name, candidate) || surnameOnly(candidate, name)
}

func surnameOnly(short, full string) bool {
	st := Tokens(short)
	ft := Tokens(full)
	return len(st) == 1 && len(ft) > 1 && st[0] == ft[len(ft)-1]
}

// FindSimilar returns the index of the first candidate matching name at
// threshold, or -1. The scan stops at the first match rather than
// searching for the best score, so insertion order decides ties.
func FindSimilar(name string, candidates []string, threshold int) int {
	for i, c := range candidates {
		if Matches(name, c, threshold) {
			return i
		}
	}
	return -1
}

// FindSimilarPerson is FindSimilar over people's display names.
func FindSimilarPerson(name string, people []model.Person, threshold int) (int, bool) {
	for i, p := range people {
		if Matches(name, p.DisplayName, threshold) {
			return i, true
		}
	}
	return -1, false
}

// NewPerson builds a Person keyed by the normalized display name.
func NewPerson(displayName string, markets ...model.MarketRef) model.Person {
	displayName = strings.TrimSpace(displayName)
	return model.Person{
		DisplayName:   displayName,
		NormalizedKey: Normalize(displayName),
		Markets:       append([]model.MarketRef(nil), markets...),
	}
}

// DeduplicatePeople folds people into a list with one entry per matched
// identity. On a match the longer display name wins and market lists are
// merged; otherwise the person is appended.
func DeduplicatePeople(people []model.Person, threshold int) []model.Person {
	out := make([]model.Person, 0, len(people))
	for _, p := range people {
		idx, ok := FindSimilarPerson(p.DisplayName, out, threshold)
		if !ok {
			out = append(out, NewPerson(p.DisplayName, p.Markets...))
			continue
		}

		existing := &out[idx]
		if utf8.RuneCountInString(p.DisplayName) > utf8.RuneCountInString(existing.DisplayName) {
			existing.DisplayName = p.DisplayName
			existing.NormalizedKey = Normalize(p.DisplayName)
		}
		existing.Markets = mergeMarkets(existing.Markets, p.Markets)
	}
	return out
}

func mergeMarkets(dst, src []model.MarketRef) []model.MarketRef {
	type key struct{ id, title string }
	seen := make(map[key]bool, len(dst)+len(src))
	for _, m := range dst {
		seen[key{m.Identifier, m.Title}] = true
	}
	for _, m := range src {
		k := key{m.Identifier, m.Title}
		if seen[k] {
			continue
		}
		seen[k] = true
		dst = append(dst, m)
	}
	return dst
}
