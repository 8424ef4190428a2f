package miss

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/polycheck/internal/model"
)

// MinEntityConfidence is the confidence a detection must exceed to be
// attached to a miss entry.
const MinEntityConfidence = 50

// Detection is the outcome of DetectEntityType.
type Detection struct {
	Type       model.EntityType
	Confidence int
}

type family struct {
	typ        model.EntityType
	confidence int
	re         *regexp.Regexp
}

// families are tried in order; the first match wins.
var families = []family{
	{model.EntityBand, 90, regexp.MustCompile(`(?i)\b(one direction|the beatles|rolling stones|bts|blackpink|coldplay|maroon 5|imagine dragons|twenty one pilots|red hot chili peppers|backstreet boys|spice girls|jonas brothers|foo fighters|pearl jam|metallica|fleetwood mac)\b`)},
	{model.EntityBand, 80, regexp.MustCompile(`(?i)\b(band|boy ?band|girl ?group|orchestra|choir|quartet|quintet|trio|duo|ensemble)\b`)},
	{model.EntityBand, 70, regexp.MustCompile(`(?i)\b(direction|dragons|pilots|boys|girls|brothers|sisters|monkeys|peppers|fighters|stones|beatles)$`)},
	{model.EntityRole, 80, regexp.MustCompile(`(?i)\b(president|vice president|governor|senator|mayor|ceo|chairman|chairwoman|chair|speaker|prime minister|secretary|nominee|candidate|pope|minister|chancellor|justice|attorney general|fed chair|leader|successor|winner|champion)\b`)},
	{model.EntityOrganization, 80, regexp.MustCompile(`(?i)\b(inc|corp|corporation|llc|ltd|plc|company|party|committee|fc|united|university|council|association|federation|union|fund|bank|agency|department|administration|democrats|republicans|gop|nato|openai|google|apple|microsoft|tesla|spacex|nvidia|amazon)\b`)},
	{model.EntityFictional, 70, regexp.MustCompile(`(?i)\b(fictional|character|batman|superman|spider-man|santa claus|harry potter|james bond|mickey mouse)\b`)},
}

// DetectEntityType classifies name with keyword heuristics. A name of two
// or three capitalized words with no keyword hit is reported as a person
// at low confidence.
func DetectEntityType(name string) Detection {
	name = strings.TrimSpace(name)
	if name == "" {
		return Detection{Type: model.EntityUnknown}
	}
	for _, f := range families {
		if f.re.MatchString(name) {
			return Detection{Type: f.typ, Confidence: f.confidence}
		}
	}
	if looksLikePerson(name) {
		return Detection{Type: model.EntityPerson, Confidence: 40}
	}
	return Detection{Type: model.EntityUnknown}
}

func looksLikePerson(name string) bool {
	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 3 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}
