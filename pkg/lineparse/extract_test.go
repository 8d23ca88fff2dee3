package lineparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameExtractors(t *testing.T) {
	tests := []struct {
		name     string
		extract  Extractor
		line     string
		wantName string
		wantConf float64
	}{
		{"named", ExtractNamed, "named jamie lynn", "Jamie Lynn", ConfidenceNamed},
		{"name is", ExtractNamed, "her name is Ana", "Ana", ConfidenceNamed},
		{"named too short", ExtractNamed, "named Al", "", 0},
		{"named keeps three tokens", ExtractNamed, "named mary ann lee smith", "Mary Ann Lee", ConfidenceNamed},
		{"met drops stopwords", ExtractMet, "met with Jordan", "Jordan", ConfidenceMet},
		{"met only stopwords", ExtractMet, "met a cool guy", "", 0},
		{"met absent", ExtractMet, "coffee with Jordan", "", 0},
		{"bigram", ExtractBigram, "drinks with Rosa Diaz later", "Rosa Diaz", ConfidenceBigram},
		{"bigram needs two words", ExtractBigram, "drinks with Rosa", "", 0},
		{"comma segment", ExtractCommaSegment, "kim lee, architect", "Kim Lee", ConfidenceComma},
		{"whole line as segment", ExtractCommaSegment, "tom", "Tom", ConfidenceComma},
		{"segment too many words", ExtractCommaSegment, "the tall guy by the door, quiet", "", 0},
		{"segment too long", ExtractCommaSegment, "alexandra katherine montgomery-smith, designer", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, conf := tt.extract(tt.line)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantConf, conf)
		})
	}
}

func TestNameRulesOrder(t *testing.T) {
	names := make([]string, len(NameRules))
	for i, r := range NameRules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"named", "met", "bigram", "comma"}, names)
}

func TestExtractAge(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"Tom, 29", 29},
		{"Tom, 120", 120},
		{"Tom, 1", 1},
		{"Tom, 0", 0},
		{"Tom, 150, then 40", 40},
		{"met Sam, 200 followers, 29", 29},
		{"Tom, 0 then 500", 0},
		{"Tom, 33 and 44", 33},
		{"born 1990", 0},
		{"no numbers", 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAge(tt.line))
		})
	}
}

func TestExtractVenue(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"drinks at the Ace Hotel with Sam", "Ace Hotel"},
		{"met at Polo Lounge LA", "Polo Lounge LA"},
		{"lunch at Blue Bottle Cafe", "Blue Bottle Cafe"},
		{"a barista named Jo", ""},
		{"nothing to see", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVenue(tt.line))
		})
	}
}

func TestPlaceCandidate(t *testing.T) {
	tests := []struct {
		venue string
		city  string
		want  string
	}{
		{"Ace Hotel", "Los Angeles", "Ace Hotel Los Angeles"},
		{"Polo Lounge LA", "Los Angeles", "Polo Lounge LA"},
		{"Hotel Paris", "Paris", "Hotel Paris"},
		{"Bar Pitti", "", "Bar Pitti"},
		{"", "Paris", "Paris"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.venue+"|"+tt.city, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaceCandidate(tt.venue, tt.city))
		})
	}
}

func TestExtractCompany(t *testing.T) {
	tests := []struct {
		line       string
		company    string
		occupation string
	}{
		{"owns a company called Acme Labs", "Acme Labs", "Owner @ Acme Labs"},
		{"runs a company called Skynet in SF", "Skynet", "Owner @ Skynet"},
		{"owns Bloom, great designer", "Bloom", "Owner @ Bloom"},
		{"works at a bank", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			company, occupation := ExtractCompany(tt.line)
			assert.Equal(t, tt.company, company)
			assert.Equal(t, tt.occupation, occupation)
		})
	}
}

func TestResidualNotes(t *testing.T) {
	assert.Equal(t, "Loves jazz", residualNotes("met Jordan at Ace Hotel, loves jazz", "Jordan", "Ace Hotel"))
	assert.Equal(t, "", residualNotes("named Al", "Al"))
	assert.Equal(t, "Clara says hi", residualNotes("Clara says hi LA", "LA"))
	assert.Equal(t, "Knows the owner.", residualNotes("knows the owner .", ""))
}
