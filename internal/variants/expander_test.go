package variants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveshop-service/internal/catalog"
)

func TestExpandColorBySize(t *testing.T) {
	cat := catalog.Default()
	base := BaseProduct{Code: "ATN001", Name: "Áo thun nam basic"}
	lines := []AttributeLine{
		{AttributeName: "Màu sắc", SelectedValues: []string{"Đen", "Trắng"}},
		{AttributeName: "Size Chữ", SelectedValues: []string{"M", "L"}},
	}

	got, err := Expand(cat, base, lines)
	require.NoError(t, err)
	require.Len(t, got, 4)

	codes := make([]string, len(got))
	names := make([]string, len(got))
	for i, v := range got {
		codes[i] = v.Code
		names[i] = v.Name
	}
	assert.Equal(t, []string{"ATN001-DEN-M", "ATN001-DEN-L", "ATN001-TRANG-M", "ATN001-TRANG-L"}, codes)
	assert.Equal(t, []string{
		"Áo thun nam basic - Đen - M",
		"Áo thun nam basic - Đen - L",
		"Áo thun nam basic - Trắng - M",
		"Áo thun nam basic - Trắng - L",
	}, names)

	assert.Equal(t, []string{"Đen", "M"}, got[0].AttributeValues)
	require.Len(t, got[0].SourceLines, 2)
	assert.Equal(t, "Màu sắc", got[0].SourceLines[0].AttributeName)
	assert.Equal(t, []string{"Đen", "Trắng"}, got[0].SourceLines[0].SelectedValues)
}

func TestExpandNumericSizeOnlyUsesLetterSeparator(t *testing.T) {
	cat := catalog.Default()
	base := BaseProduct{Code: "N152", Name: "Giày thể thao"}
	lines := []AttributeLine{
		{AttributeName: "Size Số", SelectedValues: []string{"38", "39"}},
	}

	got, err := Expand(cat, base, lines)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "N152A38", got[0].Code)
	assert.Equal(t, "N152A39", got[1].Code)
	assert.Equal(t, "Giày thể thao - 38", got[0].Name)
}

func TestExpandNumericSizeCombinedWithColorUsesDashes(t *testing.T) {
	cat := catalog.Default()
	base := BaseProduct{Code: "N152", Name: "Giày thể thao"}
	lines := []AttributeLine{
		{AttributeName: "Màu sắc", SelectedValues: []string{"Đen"}},
		{AttributeName: "Size Số", SelectedValues: []string{"38"}},
	}

	got, err := Expand(cat, base, lines)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "N152-DEN-38", got[0].Code)
}

func TestExpandCountMatchesProductOfLineSizes(t *testing.T) {
	cat := catalog.Default()
	base := BaseProduct{Code: "N0048", Name: "Quần jean"}
	lines := []AttributeLine{
		{AttributeName: "Màu sắc", SelectedValues: []string{"Đen", "Trắng", "Xám"}},
		{AttributeName: "Size Chữ", SelectedValues: []string{"S", "M", "L", "XL"}},
		{AttributeName: "Size Số", SelectedValues: []string{"28", "29"}},
	}

	got, err := Expand(cat, base, lines)
	require.NoError(t, err)
	assert.Len(t, got, 3*4*2)

	seen := make(map[string]bool, len(got))
	for _, v := range got {
		assert.False(t, seen[v.Code], "duplicate code %s", v.Code)
		seen[v.Code] = true
	}
}

func TestExpandDropsUnmatchedValuesSilently(t *testing.T) {
	cat := catalog.Default()
	base := BaseProduct{Code: "ATN001", Name: "Áo thun nam basic"}
	lines := []AttributeLine{
		{AttributeName: "Màu sắc", SelectedValues: []string{"Đen", "Tím"}}, // Tím not in catalog
		{AttributeName: "Size Chữ", SelectedValues: []string{"M"}},
	}

	got, err := Expand(cat, base, lines)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ATN001-DEN-M", got[0].Code)
}

func TestExpandDropsEmptyLines(t *testing.T) {
	cat := catalog.Default()
	base := BaseProduct{Code: "ATN001", Name: "Áo thun nam basic"}
	lines := []AttributeLine{
		{AttributeName: "Chất liệu", SelectedValues: []string{"Cotton"}}, // unknown attribute
		{AttributeName: "Màu sắc", SelectedValues: []string{"Đen"}},
	}

	got, err := Expand(cat, base, lines)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ATN001-DEN", got[0].Code)
}

func TestExpandRejectsEmptySelection(t *testing.T) {
	cat := catalog.Default()
	base := BaseProduct{Code: "ATN001", Name: "Áo thun nam basic"}

	_, err := Expand(cat, base, nil)
	assert.ErrorIs(t, err, ErrNoAttributeLines)

	// Lines that survive catalog filtering with nothing left behave the same.
	_, err = Expand(cat, base, []AttributeLine{
		{AttributeName: "Màu sắc", SelectedValues: []string{"Tím"}},
	})
	assert.ErrorIs(t, err, ErrNoAttributeLines)
}

func TestExpandNormalizesValueCasing(t *testing.T) {
	cat := catalog.Default()
	base := BaseProduct{Code: "ATN001", Name: "Áo thun nam basic"}
	lines := []AttributeLine{
		{AttributeName: "màu sắc", SelectedValues: []string{"đen"}},
	}

	got, err := Expand(cat, base, lines)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ATN001-DEN", got[0].Code)
	assert.Equal(t, []string{"Đen"}, got[0].AttributeValues)
	assert.Equal(t, "Màu sắc", got[0].SourceLines[0].AttributeName)
}

func TestResolveLines(t *testing.T) {
	cat := catalog.Default()
	lines := []AttributeLine{
		{AttributeName: "size chữ", SelectedValues: []string{"m", "Tím", "L"}},
		{AttributeName: "Unknown", SelectedValues: []string{"x"}},
	}

	resolved := ResolveLines(cat, lines)
	require.Len(t, resolved, 1)
	assert.Equal(t, "Size Chữ", resolved[0].AttributeName)
	assert.Equal(t, []string{"M", "L"}, resolved[0].SelectedValues)
}
