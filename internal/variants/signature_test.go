package variants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveshop-service/internal/catalog"
)

func TestFormatSignature(t *testing.T) {
	tests := []struct {
		name     string
		lines    []AttributeLine
		expected string
	}{
		{
			name: "two groups",
			lines: []AttributeLine{
				{AttributeName: "Màu sắc", SelectedValues: []string{"Đen", "Trắng"}},
				{AttributeName: "Size Chữ", SelectedValues: []string{"S", "M", "L"}},
			},
			expected: "(Đen | Trắng) (S | M | L)",
		},
		{
			name: "single value group",
			lines: []AttributeLine{
				{AttributeName: "Màu sắc", SelectedValues: []string{"Đen"}},
			},
			expected: "(Đen)",
		},
		{
			name: "empty line skipped",
			lines: []AttributeLine{
				{AttributeName: "Màu sắc", SelectedValues: nil},
				{AttributeName: "Size Chữ", SelectedValues: []string{"M"}},
			},
			expected: "(M)",
		},
		{
			name:     "no lines",
			lines:    nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSignature(tt.lines))
		})
	}
}

func TestParseSignature(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		name      string
		signature string
		expected  []AttributeLine
	}{
		{
			name:      "two groups",
			signature: "(Đen | Trắng) (S | M | L)",
			expected: []AttributeLine{
				{AttributeID: "mau-sac", AttributeName: "Màu sắc", SelectedValues: []string{"Đen", "Trắng"}},
				{AttributeID: "size-chu", AttributeName: "Size Chữ", SelectedValues: []string{"S", "M", "L"}},
			},
		},
		{
			name:      "no parentheses falls back to single group",
			signature: "Đen | Trắng",
			expected: []AttributeLine{
				{AttributeID: "mau-sac", AttributeName: "Màu sắc", SelectedValues: []string{"Đen", "Trắng"}},
			},
		},
		{
			name:      "case insensitive with canonical output",
			signature: "(đen | TRẮNG)",
			expected: []AttributeLine{
				{AttributeID: "mau-sac", AttributeName: "Màu sắc", SelectedValues: []string{"Đen", "Trắng"}},
			},
		},
		{
			name:      "unknown tokens in claimed group dropped",
			signature: "(Đen | Tím)",
			expected: []AttributeLine{
				{AttributeID: "mau-sac", AttributeName: "Màu sắc", SelectedValues: []string{"Đen"}},
			},
		},
		{
			name:      "unclaimed group dropped, rest recovered",
			signature: "(Cotton | Lụa) (M | L)",
			expected: []AttributeLine{
				{AttributeID: "size-chu", AttributeName: "Size Chữ", SelectedValues: []string{"M", "L"}},
			},
		},
		{
			name:      "numeric sizes",
			signature: "(38 | 39)",
			expected: []AttributeLine{
				{AttributeID: "size-so", AttributeName: "Size Số", SelectedValues: []string{"38", "39"}},
			},
		},
		{
			name:      "plain text without pipes yields nothing",
			signature: "Đen",
			expected:  nil,
		},
		{
			name:      "empty string",
			signature: "",
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSignature(cat, tt.signature))
		})
	}
}

func TestParseSignatureCatalogPriorityClaimsAmbiguousGroup(t *testing.T) {
	// "M" exists under both attributes; the first-declared one claims the
	// group even though the second would match more tokens. Changing this
	// would change how already-stored signatures parse.
	cat := catalog.New([]catalog.Attribute{
		{ID: "mau", Name: "Màu", Values: []catalog.Value{{Name: "M", ShortCode: "M"}}},
		{ID: "size", Name: "Size", Values: []catalog.Value{
			{Name: "M", ShortCode: "M"}, {Name: "L", ShortCode: "L"},
		}},
	})

	got := ParseSignature(cat, "(M | L)")
	require.Len(t, got, 1)
	assert.Equal(t, "Màu", got[0].AttributeName)
	assert.Equal(t, []string{"M"}, got[0].SelectedValues)
}

func TestSignatureRoundTrip(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		name  string
		lines []AttributeLine
	}{
		{
			name: "color and letter size",
			lines: []AttributeLine{
				{AttributeID: "mau-sac", AttributeName: "Màu sắc", SelectedValues: []string{"Đen", "Trắng"}},
				{AttributeID: "size-chu", AttributeName: "Size Chữ", SelectedValues: []string{"S", "M", "L"}},
			},
		},
		{
			name: "single numeric size line",
			lines: []AttributeLine{
				{AttributeID: "size-so", AttributeName: "Size Số", SelectedValues: []string{"38", "39", "40"}},
			},
		},
		{
			name: "all three attributes",
			lines: []AttributeLine{
				{AttributeID: "mau-sac", AttributeName: "Màu sắc", SelectedValues: []string{"Rêu"}},
				{AttributeID: "size-chu", AttributeName: "Size Chữ", SelectedValues: []string{"XL", "XXL"}},
				{AttributeID: "size-so", AttributeName: "Size Số", SelectedValues: []string{"30"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.lines, ParseSignature(cat, FormatSignature(tt.lines)))
		})
	}
}

func TestParseSignatureSurvivesExpandOutput(t *testing.T) {
	// What the expander stamped on a batch must parse back to the same
	// selections later, when the row is reconciled.
	cat := catalog.Default()
	lines := []AttributeLine{
		{AttributeName: "màu sắc", SelectedValues: []string{"đen", "trắng"}},
		{AttributeName: "SIZE CHỮ", SelectedValues: []string{"m", "l"}},
	}

	resolved := ResolveLines(cat, lines)
	signature := FormatSignature(resolved)
	assert.Equal(t, "(Đen | Trắng) (M | L)", signature)
	assert.Equal(t, resolved, ParseSignature(cat, signature))
}
