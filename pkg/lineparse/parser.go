// Package lineparse turns one free-text line about a person into a Candidate.
//
// Extraction is heuristic and never fails. Name rules run in a fixed order and
// the first hit decides both the name and the confidence; the remaining fields
// are extracted independently from the same line.
package lineparse

import (
	"strconv"
	"time"

	"github.com/olebedev/when"

	"github.com/otherjamesbrown/netnotes-cli/pkg/clock"
)

// DefaultFollowUpAfter is used when a follow-up is requested without a date.
const DefaultFollowUpAfter = 7 * 24 * time.Hour

// Parser extracts candidates. The zero value is not usable; call New.
type Parser struct {
	clock         clock.Clock
	followUpAfter time.Duration
	dates         *when.Parser
	rules         []NameRule
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock sets the clock used to resolve relative follow-up dates.
func WithClock(c clock.Clock) Option {
	return func(p *Parser) {
		p.clock = c
	}
}

// WithFollowUpAfter sets the delay for follow-ups that name no date.
func WithFollowUpAfter(d time.Duration) Option {
	return func(p *Parser) {
		if d > 0 {
			p.followUpAfter = d
		}
	}
}

// WithNameRules replaces the ordered name rules.
func WithNameRules(rules ...NameRule) Option {
	return func(p *Parser) {
		p.rules = rules
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		clock:         clock.System{},
		followUpAfter: DefaultFollowUpAfter,
		dates:         newDateParser(),
		rules:         NameRules,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// Parse extracts a Candidate using the default parser.
func Parse(line string) Candidate {
	return defaultParser.Parse(line)
}

// Parse extracts a Candidate from line.
func (p *Parser) Parse(line string) Candidate {
	raw := collapseSpace(line)
	if raw == "" {
		return Candidate{}
	}

	c := Candidate{Confidence: ConfidenceNone}
	for _, rule := range p.rules {
		if name, conf := rule.Extract(raw); name != "" {
			c.Name = name
			c.NameRule = rule.Name
			c.Confidence = conf
			break
		}
	}

	c.Age = ExtractAge(raw)

	city, cityText := ExtractCity(raw)
	c.City = city
	c.Venue = ExtractVenue(raw)
	c.PlaceCandidate = PlaceCandidate(c.Venue, c.City)
	c.Company, c.Occupation = ExtractCompany(raw)

	var age string
	if c.Age > 0 {
		age = strconv.Itoa(c.Age)
	}
	c.Notes = residualNotes(raw, c.Name, c.PlaceCandidate, c.Venue, cityText, c.Company, age)
	c.FollowUp = extractFollowUp(p.dates, raw, p.clock.Now(), p.followUpAfter)
	return c
}
