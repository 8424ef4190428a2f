// Package names provides the identity model shared by every resolution
// layer: canonical name keys, a tiered similarity score, and fuzzy
// deduplication of extracted people.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer(
	"’", "'", // right single quotation mark
	"‘", "'", // left single quotation mark
	"ʼ", "'", // modifier letter apostrophe
	"`", "'",
	"´", "'", // acute accent
)

// Normalize converts a display name into the key used by every durable
// store:
//  1. Lowercasing
//  2. Folding diacritics (é -> e)
//  3. Unifying apostrophe variants to '
//  4. Collapsing runs of whitespace into single spaces and trimming
//
// Normalize is total and idempotent.
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	// Folding can surface a bare grave or acute (U+1FEF, U+1FFD), so
	// apostrophes are unified after it.
	name = strings.ToLower(name)
	name = foldDiacritics(name)
	name = apostrophes.Replace(name)

	return strings.Join(strings.Fields(name), " ")
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokens splits a name into its normalized words.
func Tokens(name string) []string {
	return strings.Fields(Normalize(name))
}

// LastToken returns the final normalized word of name, usually the surname.
func LastToken(name string) string {
	toks := Tokens(name)
	if len(toks) == 0 {
		return ""
	}
	return toks[len(toks)-1]
}
