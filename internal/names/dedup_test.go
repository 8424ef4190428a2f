package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/polycheck/internal/model"
)

func market(id, title string) model.MarketRef {
	return model.MarketRef{Identifier: id, Title: title, SourceKind: model.SourceKindOutcome}
}

func TestDeduplicatePeople_LongerNameWins(t *testing.T) {
	people := []model.Person{
		NewPerson("Trump", market("m1", "Who wins 2028?")),
		NewPerson("Donald Trump", market("m2", "Trump out as President?")),
	}

	out := DeduplicatePeople(people, 50)

	require.Len(t, out, 1)
	assert.Equal(t, "Donald Trump", out[0].DisplayName)
	assert.Equal(t, "donald trump", out[0].NormalizedKey)
	require.Len(t, out[0].Markets, 2)
	assert.Equal(t, "m1", out[0].Markets[0].Identifier)
	assert.Equal(t, "m2", out[0].Markets[1].Identifier)
}

func TestDeduplicatePeople_DistinctPeopleKept(t *testing.T) {
	people := []model.Person{
		NewPerson("Kevin Warsh"),
		NewPerson("Kevin Hassett"),
		NewPerson("Christopher Waller"),
	}

	out := DeduplicatePeople(people, 50)
	assert.Len(t, out, 3)
}

func TestDeduplicatePeople_MergedMarketsAreDistinct(t *testing.T) {
	people := []model.Person{
		NewPerson("Gavin Newsom", market("m1", "Dem nominee")),
		NewPerson("gavin newsom", market("m1", "Dem nominee"), market("m2", "CA")),
	}

	out := DeduplicatePeople(people, 50)
	require.Len(t, out, 1)
	assert.Equal(t, "Gavin Newsom", out[0].DisplayName)
	assert.Len(t, out[0].Markets, 2)
}

func TestFindSimilar_FirstMatchWins(t *testing.T) {
	candidates := []string{"Donald Trump Jr.", "Donald Trump"}
	// both clear the threshold; the earlier one wins even though the later is exact
	assert.Equal(t, 0, FindSimilar("Donald Trump", candidates, 50))
}

func TestFindSimilar_None(t *testing.T) {
	assert.Equal(t, -1, FindSimilar("Elon Musk", []string{"Kamala Harris", "JD Vance"}, 50))
}

func TestMatches_SurnameOnly(t *testing.T) {
	assert.True(t, Matches("Vance", "JD Vance", 90))
	assert.False(t, Matches("Harris", "Kamala Harrison", 90))
}
