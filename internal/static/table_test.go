package static

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/polycheck/internal/model"
)

func defaultTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := Default()
	require.NoError(t, err)
	return tbl
}

func TestDefault_ExactMatch(t *testing.T) {
	tbl := defaultTable(t)
	assert.Positive(t, tbl.Len())

	res, ok := tbl.Lookup("Donald Trump")
	require.True(t, ok)
	assert.True(t, res.Found)
	assert.Equal(t, "1946-06-14", res.BirthDateISO.OrZero())
	assert.Equal(t, "June 14, 1946", res.BirthDate.OrZero())
	assert.Equal(t, "https://en.wikipedia.org/wiki/Donald_Trump", res.WikipediaURL.OrZero())
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, model.SourceStaticTable, res.Source)
	assert.Equal(t, model.StatusFound, res.Status)
	assert.Empty(t, res.MatchedAs)
}

func TestLookup_NormalizesInput(t *testing.T) {
	tbl := defaultTable(t)

	res, ok := tbl.Lookup("  donald   TRUMP ")
	require.True(t, ok)
	assert.Equal(t, "1946-06-14", res.BirthDateISO.OrZero())
	assert.Empty(t, res.MatchedAs)
}

func TestLookup_Fuzzy(t *testing.T) {
	tbl := defaultTable(t)

	tests := []struct {
		query   string
		matched string
		iso     string
	}{
		{"Trump", "donald trump", "1946-06-14"},
		{"Ocasio-Cortez", "alexandria ocasio-cortez", "1989-10-13"},
		{"D. Trump", "donald trump", "1946-06-14"},
		{"Volodymyr Zelensky", "volodymyr zelenskyy", "1978-01-25"},
		{"Hunter Biden", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, ok := tbl.Lookup(tt.query)
			if tt.matched == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.matched, res.MatchedAs)
			assert.Equal(t, tt.iso, res.BirthDateISO.OrZero())
		})
	}
}

func TestLookup_NoMatch(t *testing.T) {
	tbl := defaultTable(t)

	for _, q := range []string{"Obscure One Direction", "Kevin Hassett", "", "Jr"} {
		_, ok := tbl.Lookup(q)
		assert.False(t, ok, q)
	}
}

func TestLookup_NilTable(t *testing.T) {
	var tbl *Table
	_, ok := tbl.Lookup("Donald Trump")
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}

func TestParse_FirstFuzzyMatchWins(t *testing.T) {
	tbl, err := Parse([]byte(`
people:
  - name: Alice Smith
    birth_date: "1970-01-01"
  - name: Bob Smith
    birth_date: "1980-01-01"
`))
	require.NoError(t, err)

	res, ok := tbl.Lookup("Smith")
	require.True(t, ok)
	assert.Equal(t, "alice smith", res.MatchedAs)
}

func TestParse_YearOnlyAndConfidence(t *testing.T) {
	tbl, err := Parse([]byte(`
people:
  - name: Some Drummer
    birth_date: "1971"
    confidence: 60
    wikipedia_title: Some Drummer (musician)
`))
	require.NoError(t, err)

	res, ok := tbl.Lookup("Some Drummer")
	require.True(t, ok)
	assert.Equal(t, "1971 (month/day unknown)", res.BirthDate.OrZero())
	assert.Equal(t, 60, res.Confidence)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Some_Drummer_(musician)", res.WikipediaURL.OrZero())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`people: [{name: "X Y", birth_date: "1990-02-30"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid birth_date")

	_, err = Parse([]byte(`people: [{name: "", birth_date: "1990-01-01"}]`))
	require.Error(t, err)

	_, err = Parse([]byte(`people: {`))
	require.Error(t, err)
}

func TestLoad_OverrideReplacesAndExtends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
people:
  - name: Donald Trump
    birth_date: "1946-06-14"
    confidence: 95
  - name: Kevin Hassett
    birth_date: "1962-03-20"
`), 0o644))

	base := defaultTable(t)
	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, base.Len()+1, tbl.Len())

	res, ok := tbl.Lookup("Donald Trump")
	require.True(t, ok)
	assert.Equal(t, 95, res.Confidence)

	res, ok = tbl.Lookup("Kevin Hassett")
	require.True(t, ok)
	assert.Equal(t, "1962-03-20", res.BirthDateISO.OrZero())
}

func TestLoad_EmptyPathAndMissingFile(t *testing.T) {
	tbl, err := Load("")
	require.NoError(t, err)
	assert.Positive(t, tbl.Len())

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
