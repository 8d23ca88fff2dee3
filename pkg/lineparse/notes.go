package lineparse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	connectorPattern = regexp.MustCompile(`(?i)\b(i was|i met|met at|met|named|name is|owns a company called|company called|owns)\b`)
	andPattern       = regexp.MustCompile(`(?i)\s+and\s+`)
	spaceDotPattern  = regexp.MustCompile(`\s+\.`)
	spaceCommaRun    = regexp.MustCompile(`\s*,(?:\s*,)*`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// residualNotes strips the extracted phrases and connector words from the
// line and returns what is left, sentence-cased. Phrases are removed
// case-insensitively wherever they occur.
func residualNotes(line string, phrases ...string) string {
	notes := line
	for _, p := range phrases {
		notes = removePhrase(notes, p)
	}
	notes = collapseSpace(notes)
	notes = connectorPattern.ReplaceAllString(notes, " ")
	notes = andPattern.ReplaceAllString(notes, " ")
	notes = spaceDotPattern.ReplaceAllString(notes, ".")
	notes = spaceCommaRun.ReplaceAllString(notes, ",")
	notes = collapseSpace(notes)
	notes = strings.Trim(notes, " ,;-")
	notes = strings.ReplaceAll(notes, ",", ", ")
	notes = trimStopwords(collapseSpace(notes))
	notes = strings.Trim(notes, " ,;-")

	if len(notes) < 3 {
		return ""
	}
	return sentenceCase(notes)
}

// trimStopwords drops filler words left dangling at either end.
func trimStopwords(s string) string {
	tokens := strings.Fields(s)
	for len(tokens) > 0 && stopwords[strings.ToLower(strings.Trim(tokens[0], ",;"))] {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && stopwords[strings.ToLower(strings.Trim(tokens[len(tokens)-1], ",;"))] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// removePhrase replaces every occurrence of phrase with a space. Edges that
// are word characters must sit on a word boundary, so removing "LA" leaves
// "Clara" intact.
func removePhrase(s, phrase string) string {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return s
	}
	expr := regexp.QuoteMeta(phrase)
	if isWordRune(firstRune(phrase)) {
		expr = `\b` + expr
	}
	if isWordRune(lastRune(phrase)) {
		expr += `\b`
	}
	return regexp.MustCompile(`(?i)`+expr).ReplaceAllString(s, " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func sentenceCase(s string) string {
	lower := strings.ToLower(s)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}
