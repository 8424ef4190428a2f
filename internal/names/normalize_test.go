package names

import (
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
}

func TestNormalize_Lowercase(t *testing.T) {
	assert.Equal(t, "donald trump", Normalize("Donald TRUMP"))
}

func TestNormalize_Whitespace(t *testing.T) {
	assert.Equal(t, "kamala harris", Normalize("  Kamala \t  Harris\n"))
}

func TestNormalize_Apostrophes(t *testing.T) {
	assert.Equal(t, "beto o'rourke", Normalize("Beto O’Rourke"))
	assert.Equal(t, "beto o'rourke", Normalize("Beto O‘Rourke"))
	assert.Equal(t, "beto o'rourke", Normalize("Beto O`Rourke"))
}

func TestNormalize_Diacritics(t *testing.T) {
	assert.Equal(t, "andres manuel lopez obrador", Normalize("Andrés Manuel López Obrador"))
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{
		"Donald Trump",
		"  Beto  O’Rourke ",
		"Andrés Manuel López Obrador",
		"SZA",
		"",
		"\u1fef",
		"\u1ffd",
		"O\u1fefRourke",
	} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_IdempotentEveryRune(t *testing.T) {
	var bad []string
	for r := rune(1); r <= 0x2FFFF; r++ {
		if !utf8.ValidRune(r) {
			continue
		}
		in := string(r)
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			bad = append(bad, fmt.Sprintf("U+%04X: %q -> %q", r, once, twice))
		}
	}
	assert.Empty(t, bad)
}

func TestNormalize_GreekAccentsBecomeApostrophes(t *testing.T) {
	assert.Equal(t, "'", Normalize("\u1fef"))
	assert.Equal(t, "'", Normalize("\u1ffd"))
}

func TestLastToken(t *testing.T) {
	assert.Equal(t, "trump", LastToken("Donald J. Trump"))
	assert.Equal(t, "", LastToken("  "))
}
