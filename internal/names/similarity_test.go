package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_Exact(t *testing.T) {
	assert.Equal(t, 100, Similarity("Donald Trump", "donald  trump"))
}

func TestSimilarity_Self(t *testing.T) {
	for _, s := range []string{"a", "Elon Musk", "Taylor Swift", ""} {
		assert.Equal(t, 100, Similarity(s, s))
	}
}

func TestSimilarity_Substring(t *testing.T) {
	// 5/12 * 90 = 37.5 -> 38
	assert.Equal(t, 38, Similarity("Trump", "Donald Trump"))
	assert.Equal(t, 38, Similarity("Donald Trump", "Trump"))
}

func TestSimilarity_TokenOverlap(t *testing.T) {
	// {kevin} of {kevin, warsh, hassett} -> 1/3 * 80 = 26.67 -> 27
	assert.Equal(t, 27, Similarity("Kevin Warsh", "Kevin Hassett"))
}

func TestSimilarity_EditDistance(t *testing.T) {
	// distance 1 over 6 runes -> (1 - 1/6) * 70 = 58.3 -> 58
	assert.Equal(t, 58, Similarity("Vances", "Vancey"))
	// "zelensky" vs "zelenskyy" is a substring, not edit distance
	assert.Equal(t, 80, Similarity("Zelensky", "Zelenskyy"))
}

func TestSimilarity_LongUnrelated(t *testing.T) {
	assert.Equal(t, 0, Similarity("Alexandria Ocasio-Cortez", "Robert Francis Kennedy Junior"))
}

func TestSimilarity_EmptyAgainstName(t *testing.T) {
	assert.Equal(t, 0, Similarity("", "Elon Musk"))
}

func TestSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"Gavin Newsom", "Gavin"},
		{"abc", "xyz"},
		{"Ron DeSantis", "Ron Paul"},
		{"Jerome Powell", "Jay Powell"},
		{"x", "a much longer name than x"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0, "%v", p)
		assert.LessOrEqual(t, s, 100, "%v", p)
	}
}
