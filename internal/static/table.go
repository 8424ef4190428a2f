// Package static holds the built-in table of well-known people consulted
// before any store or network lookup.
package static

import (
	_ "embed"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/polycheck/internal/extract"
	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/names"
	"github.com/sells-group/polycheck/pkg/wikipedia"
)

//go:embed seed.yaml
var seedYAML []byte

// PatternSource tags results produced by the table.
const PatternSource = "static"

// minSubstringRunes keeps short fragments like "jr" from matching.
const minSubstringRunes = 4

// Entry is one row of the table file.
type Entry struct {
	Name           string `yaml:"name"`
	BirthDate      string `yaml:"birth_date"`
	WikipediaTitle string `yaml:"wikipedia_title,omitempty"`
	Confidence     int    `yaml:"confidence,omitempty"`
}

type file struct {
	People []Entry `yaml:"people"`
}

type row struct {
	key    string
	tokens []string
	result model.BiographicalResult
}

// Table is an immutable name → result map. The zero value is empty.
type Table struct {
	rows  []row
	index map[string]int
}

// Default returns the embedded seed table.
func Default() (*Table, error) {
	return Parse(seedYAML)
}

// Load returns the seed table with entries from the YAML file at path
// layered over it. An empty path returns the seed table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "static: read %s", path)
	}

	var seed, override file
	if err := yaml.Unmarshal(seedYAML, &seed); err != nil {
		return nil, eris.Wrap(err, "static: parse seed")
	}
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, eris.Wrapf(err, "static: parse %s", path)
	}
	return build(append(seed.People, override.People...))
}

// Parse builds a table from YAML bytes.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "static: parse")
	}
	return build(f.People)
}

// build indexes entries by normalized name. A later entry for the same
// key replaces the earlier one in place, keeping its scan position.
func build(entries []Entry) (*Table, error) {
	t := &Table{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		key := names.Normalize(e.Name)
		if key == "" {
			return nil, eris.New("static: entry with empty name")
		}
		display, ok := extract.FormatISO(e.BirthDate)
		if !ok {
			return nil, eris.Errorf("static: %s: invalid birth_date %q", e.Name, e.BirthDate)
		}
		title := e.WikipediaTitle
		if title == "" {
			title = e.Name
		}
		confidence := e.Confidence
		if confidence <= 0 {
			confidence = extract.ConfidenceFullStructured
		}

		r := row{
			key:    key,
			tokens: names.Tokens(key),
			result: model.BiographicalResult{
				Name:          e.Name,
				Found:         true,
				BirthDate:     model.Some(display),
				BirthDateISO:  model.Some(e.BirthDate),
				WikipediaURL:  model.Some(wikipedia.PageURL(title)),
				Confidence:    confidence,
				PatternSource: PatternSource,
				Status:        model.StatusFound,
				Source:        model.SourceStaticTable,
			},
		}
		if i, dup := t.index[key]; dup {
			t.rows[i] = r
			continue
		}
		t.index[key] = len(t.rows)
		t.rows = append(t.rows, r)
	}
	return t, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Lookup resolves name against the table. An exact normalized match
// returns immediately; otherwise each entry is tried in table order with
// the fuzzy rules in fuzzyMatch and the first hit wins. Fuzzy hits carry
// the canonical key in MatchedAs.
func (t *Table) Lookup(name string) (model.BiographicalResult, bool) {
	if t == nil {
		return model.BiographicalResult{}, false
	}
	key := names.Normalize(name)
	if key == "" {
		return model.BiographicalResult{}, false
	}
	if i, ok := t.index[key]; ok {
		return t.rows[i].result, true
	}

	tokens := names.Tokens(key)
	for _, r := range t.rows {
		if fuzzyMatch(key, tokens, r) {
			res := r.result
			res.MatchedAs = r.key
			return res, true
		}
	}
	return model.BiographicalResult{}, false
}

// fuzzyMatch applies, in order: a bare surname equal to the entry's last
// token; the query contained in the entry key; same last name and same
// first initial.
func fuzzyMatch(key string, tokens []string, r row) bool {
	if len(tokens) == 0 || len(r.tokens) == 0 {
		return false
	}
	last := r.tokens[len(r.tokens)-1]

	if len(tokens) == 1 && tokens[0] == last {
		return true
	}
	if utf8.RuneCountInString(key) >= minSubstringRunes && strings.Contains(r.key, key) {
		return true
	}
	if len(tokens) >= 2 && tokens[len(tokens)-1] == last {
		qFirst, _ := utf8.DecodeRuneInString(tokens[0])
		eFirst, _ := utf8.DecodeRuneInString(r.tokens[0])
		return qFirst == eFirst
	}
	return false
}
