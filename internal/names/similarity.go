package names

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// editDistanceMaxLen bounds the edit-distance tier to short strings.
const editDistanceMaxLen = 20

// Similarity scores two names from 0 to 100. The first matching tier wins:
//
//	exact (after Normalize)       100
//	substring                     shorter/longer * 90
//	shared words (Jaccard)        |A∩B|/|A∪B| * 80
//	both shorter than 20 runes    (1 - distance/maxLen) * 70
//	otherwise                     0
func Similarity(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}

	la, lb := utf8.RuneCountInString(na), utf8.RuneCountInString(nb)

	shorter, longer, ls, ll := na, nb, la, lb
	if la > lb {
		shorter, longer, ls, ll = nb, na, lb, la
	}
	if strings.Contains(longer, shorter) {
		return roundScore(float64(ls) / float64(ll) * 90)
	}

	if score, ok := tokenOverlap(na, nb); ok {
		return score
	}

	if la < editDistanceMaxLen && lb < editDistanceMaxLen {
		d := levenshtein.Distance(na, nb, nil)
		maxLen := max(la, lb)
		score := roundScore((1 - float64(d)/float64(maxLen)) * 70)
		return max(score, 0)
	}

	return 0
}

func tokenOverlap(a, b string) (int, bool) {
	setA := wordSet(a)
	setB := wordSet(b)

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	if intersection == 0 {
		return 0, false
	}

	union := len(setA)
	for w := range setB {
		if !setA[w] {
			union++
		}
	}
	return roundScore(float64(intersection) / float64(union) * 80), true
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// roundScore rounds half away from zero and clamps to [0,100].
func roundScore(f float64) int {
	n := int(math.Round(f))
	return min(max(n, 0), 100)
}
