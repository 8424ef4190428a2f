// Package extract parses birth dates out of raw knowledge-source documents.
package extract

import (
	"regexp"
	"strconv"
	"time"
)

// Pattern tags identify the rule that produced a birth date.
const (
	PatternInfobox     = "infobox"
	PatternText        = "text"
	PatternInfoboxYear = "infobox-year"
	PatternTextYear    = "text-year"
)

// Confidence tiers by rule family.
const (
	ConfidenceFullStructured = 100
	ConfidenceFullProse      = 80
	ConfidenceYearStructured = 60
	ConfidenceYearProse      = 50
)

const (
	displayLayout = "January 02, 2006"
	isoLayout     = "2006-01-02"
)

// BirthDate is an extracted birth date.
type BirthDate struct {
	Formatted     string `json:"formatted"`
	ISO           string `json:"iso"`
	Confidence    int    `json:"confidence"`
	PatternSource string `json:"pattern_source"`
}

type rule struct {
	re         *regexp.Regexp
	confidence int
	tag        string
	parse      func(m []string) (time.Time, bool)
}

// rules run in order; the first rule that yields a valid date wins.
var rules = []rule{
	// {{birth date and age|1946|6|14}}
	{
		re:         regexp.MustCompile(`\{\{[Bb]irth date(?: and age)?\|(\d{4})\|(\d{1,2})\|(\d{1,2})`),
		confidence: ConfidenceFullStructured,
		tag:        PatternInfobox,
		parse:      ymd,
	},
	// {{birth date and age|df=yes|1946|6|14}}
	{
		re:         regexp.MustCompile(`\{\{[Bb]irth date[^}]*?\|(\d{4})\|(\d{1,2})\|(\d{1,2})`),
		confidence: ConfidenceFullStructured,
		tag:        PatternInfobox,
		parse:      ymd,
	},
	// | birth_date = {{dob|1946|6|14}}
	{
		re:         regexp.MustCompile(`(?i)birth_date\s*=\s*\{\{[^|}]+\|(\d{4})\|(\d{1,2})\|(\d{1,2})`),
		confidence: ConfidenceFullStructured,
		tag:        PatternInfobox,
		parse:      ymd,
	},
	// (born June 14, 1946)
	{
		re:         regexp.MustCompile(`\(?\s*born\s+([A-Z][a-z]+)\s+(\d{1,2}),?\s+(\d{4})`),
		confidence: ConfidenceFullProse,
		tag:        PatternText,
		parse: func(m []string) (time.Time, bool) {
			return parseMonthName(m[1], m[2], m[3])
		},
	},
	// born 14 June 1946
	{
		re:         regexp.MustCompile(`born\s+(\d{1,2})\s+([A-Z][a-z]+)\s+(\d{4})`),
		confidence: ConfidenceFullProse,
		tag:        PatternText,
		parse: func(m []string) (time.Time, bool) {
			return parseMonthName(m[2], m[1], m[3])
		},
	},
}

var (
	birthYearRe = regexp.MustCompile(`\{\{[Bb]irth year(?: and age)?\|(\d{4})`)
	proseYearRe = regexp.MustCompile(`(?i)\bborn\s+(?:in\s+|circa\s+|c\.\s*|ca\.\s*)(\d{4})\b`)
)

// Extract returns the birth date found in doc. A false result means no
// rule matched, which is a normal outcome for pages without birth data.
func Extract(doc string) (BirthDate, bool) {
	if doc == "" {
		return BirthDate{}, false
	}

	for _, r := range rules {
		for _, m := range r.re.FindAllStringSubmatch(doc, -1) {
			t, ok := r.parse(m)
			if !ok {
				continue
			}
			return BirthDate{
				Formatted:     t.Format(displayLayout),
				ISO:           t.Format(isoLayout),
				Confidence:    r.confidence,
				PatternSource: r.tag,
			}, true
		}
	}

	if m := birthYearRe.FindStringSubmatch(doc); m != nil {
		return yearOnly(m[1], ConfidenceYearStructured, PatternInfoboxYear), true
	}
	if m := proseYearRe.FindStringSubmatch(doc); m != nil {
		return yearOnly(m[1], ConfidenceYearProse, PatternTextYear), true
	}

	return BirthDate{}, false
}

func yearOnly(year string, confidence int, tag string) BirthDate {
	formatted, _ := FormatISO(year)
	return BirthDate{
		Formatted:     formatted,
		ISO:           year,
		Confidence:    confidence,
		PatternSource: tag,
	}
}

// ymd builds a date from year, month, day capture groups, rejecting
// impossible calendar dates such as 1990-02-30.
func ymd(m []string) (time.Time, bool) {
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	if mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

func parseMonthName(month, day, year string) (time.Time, bool) {
	t, err := time.Parse("January 2 2006", month+" "+day+" "+year)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatISO renders an ISO birth date (YYYY-MM-DD or YYYY) in display form.
func FormatISO(iso string) (string, bool) {
	if t, err := time.Parse(isoLayout, iso); err == nil {
		return t.Format(displayLayout), true
	}
	if len(iso) == 4 {
		if _, err := strconv.Atoi(iso); err == nil {
			return iso + " (month/day unknown)", true
		}
	}
	return "", false
}
