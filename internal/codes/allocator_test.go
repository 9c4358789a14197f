package codes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Code
		wantOK bool
	}{
		{"standard code", "N0048", Code{Category: 'N', Number: 48, Width: 4}, true},
		{"short number", "P012", Code{Category: 'P', Number: 12, Width: 3}, true},
		{"lowercase category", "n0048", Code{Category: 'N', Number: 48, Width: 4}, true},
		{"wide convention", "N00150", Code{Category: 'N', Number: 150, Width: 5}, true},
		{"surrounding whitespace", " N0048 ", Code{Category: 'N', Number: 48, Width: 4}, true},
		{"variant suffix rejected", "N0048-DEN-M", Code{}, false},
		{"numeric size code rejected", "N152A38", Code{}, false},
		{"multi letter prefix rejected", "ATN001", Code{}, false},
		{"digits only", "0048", Code{}, false},
		{"letter only", "N", Code{}, false},
		{"empty", "", Code{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMaxSequenceAcrossSources(t *testing.T) {
	formItems := []string{"N0045", "N0046"}
	catalogRows := []string{"N0047", "N0012", "P0099", "N0047-DEN-M"}
	orderItems := []string{"N0001", "invalid", ""}

	max, width := MaxSequence('N', formItems, catalogRows, orderItems)
	assert.Equal(t, 47, max)
	assert.Equal(t, 4, width)

	max, _ = MaxSequence('P', formItems, catalogRows, orderItems)
	assert.Equal(t, 99, max)
}

func TestMaxSequenceEmptySources(t *testing.T) {
	max, width := MaxSequence('N', nil, []string{})
	assert.Equal(t, 0, max)
	assert.Equal(t, 0, width)
}

func TestNextCode(t *testing.T) {
	tests := []struct {
		name     string
		category byte
		sources  [][]string
		expected string
	}{
		{
			name:     "max 47 yields N0048",
			category: 'N',
			sources:  [][]string{{"N0047", "N0012"}, {"N0030"}},
			expected: "N0048",
		},
		{
			name:     "no existing codes starts at 1",
			category: 'N',
			sources:  [][]string{},
			expected: "N0001",
		},
		{
			name:     "wider convention is kept",
			category: 'N',
			sources:  [][]string{{"N00150"}},
			expected: "N00151",
		},
		{
			name:     "rollover past padding is not truncated",
			category: 'N',
			sources:  [][]string{{"N9999"}},
			expected: "N10000",
		},
		{
			name:     "lowercase category normalized",
			category: 'p',
			sources:  [][]string{{"P0007"}},
			expected: "P0008",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextCode(tt.category, tt.sources...))
		})
	}
}

func TestCheckGap(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		maxUsed   int
		want      GapCheck
	}{
		{"large jump flagged", "N0090", 47, GapCheck{Gap: 43, Large: true}},
		{"small jump accepted", "N0050", 47, GapCheck{Gap: 3, Large: false}},
		{"threshold boundary not flagged", "N0057", 47, GapCheck{Gap: 10, Large: false}},
		{"just past threshold flagged", "N0058", 47, GapCheck{Gap: 11, Large: true}},
		{"backwards candidate not flagged", "N0040", 47, GapCheck{Gap: -7, Large: false}},
		{"malformed candidate is a no-op", "N0090-DEN", 47, GapCheck{}},
		{"empty candidate is a no-op", "", 47, GapCheck{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckGap(tt.candidate, tt.maxUsed))
		})
	}
}
