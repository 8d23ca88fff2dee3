package lineparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/netnotes-cli/pkg/clock"
)

func TestParse_NamedWithVenueAndCity(t *testing.T) {
	c := Parse("named Alex, 29, met at Polo Lounge LA")

	assert.Equal(t, "Alex", c.Name)
	assert.Equal(t, "named", c.NameRule)
	assert.Equal(t, 29, c.Age)
	assert.Equal(t, "Los Angeles", c.City)
	assert.Contains(t, c.PlaceCandidate, "Polo Lounge")
	assert.GreaterOrEqual(t, c.Confidence, 0.9)
	assert.Empty(t, c.Notes)
	assert.True(t, c.TypedGeo())
}

func TestParse_Empty(t *testing.T) {
	for _, line := range []string{"", "   ", "\t\n"} {
		c := Parse(line)
		assert.Equal(t, Candidate{}, c)
		assert.False(t, c.HasName())
		assert.Zero(t, c.Confidence)
	}
}

func TestParse_NoNameFound(t *testing.T) {
	c := Parse("grabbed coffee near the office and talked about hiking trails for hours")

	assert.False(t, c.HasName())
	assert.Equal(t, ConfidenceNone, c.Confidence)
	assert.Equal(t, "Grabbed coffee near the office talked about hiking trails for hours", c.Notes)
	assert.False(t, c.TypedGeo())
}

func TestParse_MetWithVenue(t *testing.T) {
	c := Parse("met Jordan Lee at Soho House London, loves jazz")

	assert.Equal(t, "Jordan Lee", c.Name)
	assert.Equal(t, ConfidenceMet, c.Confidence)
	assert.Equal(t, "London", c.City)
	assert.Equal(t, "Soho House London", c.Venue)
	assert.Equal(t, "Soho House London", c.PlaceCandidate)
	assert.Equal(t, "Loves jazz", c.Notes)
}

func TestParse_BigramWithCompany(t *testing.T) {
	c := Parse("Sarah Connor, 34, owns a company called Skynet in SF")

	assert.Equal(t, "Sarah Connor", c.Name)
	assert.Equal(t, ConfidenceBigram, c.Confidence)
	assert.Equal(t, 34, c.Age)
	assert.Equal(t, "San Francisco", c.City)
	assert.Equal(t, "San Francisco", c.PlaceCandidate)
	assert.Equal(t, "Skynet", c.Company)
	assert.Equal(t, "Owner @ Skynet", c.Occupation)
	assert.Empty(t, c.Notes)
}

func TestParse_CommaSegmentWithOwns(t *testing.T) {
	c := Parse("Priya, owns Bloom, great designer")

	assert.Equal(t, "Priya", c.Name)
	assert.Equal(t, ConfidenceComma, c.Confidence)
	assert.Equal(t, "Bloom", c.Company)
	assert.Equal(t, "Owner @ Bloom", c.Occupation)
	assert.Equal(t, "Great designer", c.Notes)
}

func TestParse_StopwordsOnlyAfterMet(t *testing.T) {
	c := Parse("met a cool guy Dan")

	assert.False(t, c.HasName())
	assert.Equal(t, ConfidenceNone, c.Confidence)
}

func TestParse_CollapsesWhitespace(t *testing.T) {
	a := Parse("named   Alex,\t29")
	b := Parse("named Alex, 29")
	assert.Equal(t, b, a)
}

func TestParse_FollowUpWithDate(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	p := New(WithClock(clock.NewFixed(now)))

	c := p.Parse("named Sam, follow up tomorrow about the deck")

	require.True(t, c.FollowUp.Needed)
	require.NotNil(t, c.FollowUp.At)
	assert.True(t, c.FollowUp.At.After(now))
	assert.True(t, c.FollowUp.At.Before(now.Add(48*time.Hour)))
	assert.Contains(t, c.FollowUp.Phrase, "tomorrow")
}

func TestParse_FollowUpDefaultDelay(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	p := New(WithClock(clock.NewFixed(now)), WithFollowUpAfter(72*time.Hour))

	c := p.Parse("named Sam, remind me to send the intro")

	require.True(t, c.FollowUp.Needed)
	require.NotNil(t, c.FollowUp.At)
	assert.Equal(t, now.Add(72*time.Hour), *c.FollowUp.At)
	assert.Empty(t, c.FollowUp.Phrase)
}

func TestParse_NoFollowUp(t *testing.T) {
	c := Parse("named Sam, likes sailing")
	assert.False(t, c.FollowUp.Needed)
	assert.Nil(t, c.FollowUp.At)
}

func TestWithNameRules(t *testing.T) {
	p := New(WithNameRules(NameRule{Name: "fixed", Extract: func(string) (string, float64) {
		return "Fixed Name", 0.5
	}}))

	c := p.Parse("named Alex")
	assert.Equal(t, "Fixed Name", c.Name)
	assert.Equal(t, "fixed", c.NameRule)
	assert.Equal(t, 0.5, c.Confidence)
}

func TestParse_AgeSkipsOutOfRangeNumbers(t *testing.T) {
	c := Parse("Tom, 150 followers, 40")

	assert.Equal(t, "Tom", c.Name)
	assert.Equal(t, 40, c.Age)
	assert.Contains(t, c.Notes, "150 followers")
}
