// Package markets turns market listings into deduplicated people to resolve.
package markets

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/names"
	"github.com/sells-group/polycheck/pkg/polymarket"
)

// DefaultTopN is how many leading outcomes of a market are considered.
const DefaultTopN = 4

// Contender is one outcome of a market with its implied probability.
type Contender struct {
	Name        string
	Probability float64 // 0-100
}

var nonPersonTerms = map[string]bool{
	"yes": true, "no": true, "other": true, "none": true, "neither": true, "both": true,
	"before": true, "after": true, "over": true, "under": true, "between": true,
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
}

// LooksLikePerson filters outcome labels that cannot be a person's name:
// yes/no style answers, month names, numbers and single words.
func LooksLikePerson(name string) bool {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	if name == "" || nonPersonTerms[lower] {
		return false
	}

	digits := strings.NewReplacer(",", "", ".", "", " ", "").Replace(name)
	if _, err := strconv.ParseUint(digits, 10, 64); err == nil {
		return false
	}

	parts := strings.Fields(name)
	if len(parts) < 2 {
		return false
	}
	first := []rune(parts[0])
	return !unicode.IsDigit(first[0])
}

// Outcomes returns every outcome of m with its probability, highest first.
// Token prices take precedence over the outcomes/outcomePrices pair.
func Outcomes(m polymarket.Market) []Contender {
	var out []Contender
	if len(m.Tokens) > 0 {
		for _, t := range m.Tokens {
			out = append(out, Contender{Name: t.Outcome, Probability: float64(t.Price) * 100})
		}
	} else {
		for i, name := range m.Outcomes {
			var price float64
			if i < len(m.OutcomePrices) {
				price, _ = strconv.ParseFloat(m.OutcomePrices[i], 64)
			}
			out = append(out, Contender{Name: name, Probability: price * 100})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	return out
}

// Contenders returns the person-like outcomes among the topN most likely.
func Contenders(m polymarket.Market, topN int) []Contender {
	if topN <= 0 {
		topN = DefaultTopN
	}
	all := Outcomes(m)
	if len(all) > topN {
		all = all[:topN]
	}
	out := make([]Contender, 0, len(all))
	for _, c := range all {
		if LooksLikePerson(c.Name) {
			out = append(out, c)
		}
	}
	return out
}

// titleSubject catches "Will <Name> <verb> ..." questions.
var titleSubject = regexp.MustCompile(`^Will ((?:[A-Z][\p{L}.'-]*\s){1,2}[A-Z][\p{L}'-]+)\s+(?:win|be|become|say|visit|announce|resign|remain|run|leave|meet|attend|endorse|post|tweet|sign|step)\b`)

// TitleSubject returns the person named as the subject of a yes/no
// question title, if any.
func TitleSubject(title string) (string, bool) {
	m := titleSubject.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	if !LooksLikePerson(name) {
		return "", false
	}
	return name, true
}

// ExtractPeople collects contenders and title subjects from markets and
// merges spellings of the same person at threshold.
func ExtractPeople(markets []polymarket.Market, topN, threshold int) []model.Person {
	var people []model.Person
	for _, m := range markets {
		title := m.DisplayTitle()
		ref := func(kind model.SourceKind) model.MarketRef {
			r := model.MarketRef{
				Title:      title,
				Identifier: m.Identifier(),
				EndDate:    m.EndDateISO,
				SourceKind: kind,
			}
			if r.EndDate == "" {
				r.EndDate = m.EndDate
			}
			if m.Volume > 0 {
				v := float64(m.Volume)
				r.Volume = &v
			}
			return r
		}
		for _, c := range Contenders(m, topN) {
			p := c.Probability
			r := ref(model.SourceKindOutcome)
			r.Probability = &p
			people = append(people, names.NewPerson(c.Name, r))
		}
		if name, ok := TitleSubject(title); ok {
			people = append(people, names.NewPerson(name, ref(model.SourceKindTitle)))
		}
	}
	return names.DeduplicatePeople(people, threshold)
}
