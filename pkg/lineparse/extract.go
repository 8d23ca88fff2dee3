package lineparse

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/otherjamesbrown/netnotes-cli/pkg/places"
)

// Extractor pulls one value out of an immutable line and reports how sure it is.
// A miss returns ("", 0).
type Extractor func(line string) (string, float64)

// NameRule is one entry in the ordered name extraction list.
type NameRule struct {
	Name    string
	Extract Extractor
}

// NameRules are tried in order; the first non-empty result wins.
var NameRules = []NameRule{
	{Name: "named", Extract: ExtractNamed},
	{Name: "met", Extract: ExtractMet},
	{Name: "bigram", Extract: ExtractBigram},
	{Name: "comma", Extract: ExtractCommaSegment},
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"cool": true, "guy": true, "girl": true, "person": true, "someone": true,
	"named": true, "name": true, "is": true, "met": true, "at": true, "in": true,
	"on": true, "with": true, "from": true, "of": true, "he": true, "she": true,
	"they": true, "i": true, "we": true, "was": true, "were": true, "just": true,
	"really": true, "very": true, "today": true,
}

var venueKeywords = map[string]bool{
	"lounge": true, "cafe": true, "bar": true, "hotel": true, "restaurant": true, "house": true,
}

var (
	namedPattern   = regexp.MustCompile(`(?i)(?:named|name is)\s+([A-Za-z][A-Za-z'\- ]{2,40})`)
	metPattern     = regexp.MustCompile(`(?i)\bmet\s+([A-Za-z][A-Za-z'\- ]{2,40})`)
	bigramPattern  = regexp.MustCompile(`\b([A-Z][a-z]+)\s+([A-Z][a-z]+)\b`)
	agePattern     = regexp.MustCompile(`\b(\d{1,3})\b`)
	venuePattern   = regexp.MustCompile(`(?i)\b([A-Za-z0-9'& ]{0,30}(?:lounge|cafe|bar|hotel|restaurant|house)[A-Za-z0-9'& ]{0,20})\b`)
	companyPattern = regexp.MustCompile(`(?i)(?:owns a company called|company called)\s+([A-Za-z0-9'&\- ]{2,40})`)
	ownsPattern    = regexp.MustCompile(`(?i)\bowns\s+([A-Za-z0-9'&\-]{2,20})`)
)

// ExtractNamed matches "named X" and "name is X".
func ExtractNamed(line string) (string, float64) {
	if name := afterPattern(line, namedPattern); name != "" {
		return name, ConfidenceNamed
	}
	return "", 0
}

// ExtractMet matches "met X".
func ExtractMet(line string) (string, float64) {
	if name := afterPattern(line, metPattern); name != "" {
		return name, ConfidenceMet
	}
	return "", 0
}

// ExtractBigram matches the first pair of capitalised words.
func ExtractBigram(line string) (string, float64) {
	m := bigramPattern.FindStringSubmatch(line)
	if m == nil {
		return "", 0
	}
	return m[1] + " " + m[2], ConfidenceBigram
}

// ExtractCommaSegment uses the first comma-separated segment when it is short
// enough to plausibly be a name.
func ExtractCommaSegment(line string) (string, float64) {
	for _, seg := range strings.Split(line, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if len(strings.Fields(seg)) <= 3 && len(seg) <= 26 {
			return titleCase(seg), ConfidenceComma
		}
		return "", 0
	}
	return "", 0
}

// afterPattern keeps up to three tokens of the first capture group, drops
// stopwords and title-cases what is left.
func afterPattern(line string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(line)
	if m == nil || m[1] == "" {
		return ""
	}
	tokens := strings.Fields(m[1])
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	kept := tokens[:0]
	for _, tok := range tokens {
		if !stopwords[strings.ToLower(tok)] {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return titleCase(strings.Join(kept, " "))
}

// ExtractAge returns the first standalone 1-3 digit number that lies in
// [1,120], skipping numbers outside that range.
func ExtractAge(line string) int {
	for _, m := range agePattern.FindAllStringSubmatch(line, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= 120 {
			return n
		}
	}
	return 0
}

// ExtractCity returns the canonical city named in the line and the text that matched.
func ExtractCity(line string) (city, matched string) {
	city, matched, _ = places.Match(line)
	return city, matched
}

// ExtractVenue returns the phrase around the first venue keyword. Words up to
// the last filler word before the keyword and from the first filler word after
// it are dropped, so "met Jo at Soho House with friends" yields "Soho House".
func ExtractVenue(line string) string {
	m := venuePattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	tokens := strings.Fields(m[1])
	kw := -1
	for i, tok := range tokens {
		if venueKeywords[strings.ToLower(tok)] {
			kw = i
			break
		}
	}
	if kw < 0 {
		// keyword only appeared inside a longer word, e.g. "barista"
		return ""
	}
	start, end := 0, len(tokens)
	for i := kw - 1; i >= 0; i-- {
		if stopwords[strings.ToLower(tokens[i])] {
			start = i + 1
			break
		}
	}
	for i := kw + 1; i < len(tokens); i++ {
		if stopwords[strings.ToLower(tokens[i])] {
			end = i
			break
		}
	}
	return strings.Join(tokens[start:end], " ")
}

// PlaceCandidate combines venue and city into the label offered for
// confirmation. A venue that already names the city, directly or by alias,
// is used as is.
func PlaceCandidate(venue, city string) string {
	switch {
	case venue != "" && city != "":
		if strings.Contains(strings.ToLower(venue), strings.ToLower(city)) {
			return venue
		}
		if c, _, ok := places.Match(venue); ok && c == city {
			return venue
		}
		return venue + " " + city
	case venue != "":
		return venue
	default:
		return city
	}
}

// ExtractCompany returns the company and the derived occupation.
func ExtractCompany(line string) (company, occupation string) {
	if m := companyPattern.FindStringSubmatch(line); m != nil {
		company = trimAtStopword(m[1])
	} else if m := ownsPattern.FindStringSubmatch(line); m != nil {
		company = m[1]
	}
	if company == "" {
		return "", ""
	}
	return company, "Owner @ " + company
}

// trimAtStopword cuts a multi-word capture at the first filler word after the
// first token, so "Skynet in SF" yields "Skynet".
func trimAtStopword(s string) string {
	tokens := strings.Fields(s)
	for i := 1; i < len(tokens); i++ {
		if stopwords[strings.ToLower(tokens[i])] {
			tokens = tokens[:i]
			break
		}
	}
	return strings.Join(tokens, " ")
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
