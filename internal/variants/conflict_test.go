package variants

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffSingleTrackedField(t *testing.T) {
	existing := FieldValues{FieldSellingPrice: decimal.NewFromInt(100000)}
	incoming := FieldValues{FieldSellingPrice: decimal.NewFromInt(120000)}

	c := Diff("ATN001-DEN-M", "Áo thun nam basic - Đen - M", existing, incoming, TrackedFields())
	require.NotNil(t, c)
	assert.Equal(t, "ATN001-DEN-M", c.ProductCode)
	assert.Equal(t, []string{FieldSellingPrice}, c.DifferingFields)
	assert.True(t, decimal.NewFromInt(100000).Equal(c.OldFields[FieldSellingPrice].(decimal.Decimal)))
	assert.True(t, decimal.NewFromInt(120000).Equal(c.NewFields[FieldSellingPrice].(decimal.Decimal)))
}

func TestDiffNoChangesReturnsNil(t *testing.T) {
	existing := FieldValues{
		FieldSellingPrice:  decimal.NewFromInt(100000),
		FieldProductName:   "Áo thun nam basic - Đen - M",
		FieldStockQuantity: 12,
	}
	incoming := FieldValues{
		FieldSellingPrice:  decimal.NewFromInt(100000),
		FieldProductName:   "Áo thun nam basic - Đen - M",
		FieldStockQuantity: 12,
	}

	assert.Nil(t, Diff("ATN001-DEN-M", "", existing, incoming, TrackedFields()))
}

func TestDiffDecimalComparesByValueNotRepresentation(t *testing.T) {
	existing := FieldValues{FieldSellingPrice: decimal.RequireFromString("100000.00")}
	incoming := FieldValues{FieldSellingPrice: decimal.NewFromInt(100000)}

	assert.Nil(t, Diff("N0048", "", existing, incoming, TrackedFields()))
}

func TestDiffIgnoresUntrackedFields(t *testing.T) {
	existing := FieldValues{"supplier": "Xưởng A", FieldBarcode: "893123"}
	incoming := FieldValues{"supplier": "Xưởng B", FieldBarcode: "893123"}

	assert.Nil(t, Diff("N0048", "", existing, incoming, TrackedFields()))
}

func TestDiffSkipsFieldsAbsentFromIncoming(t *testing.T) {
	existing := FieldValues{
		FieldStockQuantity: 7,
		FieldProductName:   "Quần jean - Đen",
	}
	incoming := FieldValues{
		FieldProductName: "Quần jean đen - Đen",
	}

	c := Diff("N0012-DEN", "", existing, incoming, TrackedFields())
	require.NotNil(t, c)
	assert.Equal(t, []string{FieldProductName}, c.DifferingFields)
}

func TestDiffReportsNewlyComputedField(t *testing.T) {
	existing := FieldValues{}
	incoming := FieldValues{FieldVariantSignature: "(Đen | Trắng) (M | L)"}

	c := Diff("ATN001", "", existing, incoming, TrackedFields())
	require.NotNil(t, c)
	assert.Equal(t, []string{FieldVariantSignature}, c.DifferingFields)
	assert.Nil(t, c.OldFields[FieldVariantSignature])
	assert.Equal(t, "(Đen | Trắng) (M | L)", c.NewFields[FieldVariantSignature])
}

func TestDiffMultipleFieldsKeepsTrackedOrder(t *testing.T) {
	existing := FieldValues{
		FieldSellingPrice:  decimal.NewFromInt(100000),
		FieldStockQuantity: 3,
		FieldProductName:   "Áo khoác - Kem",
	}
	incoming := FieldValues{
		FieldSellingPrice:  decimal.NewFromInt(150000),
		FieldStockQuantity: 10,
		FieldProductName:   "Áo khoác dù - Kem",
	}

	c := Diff("N0099-KEM", "Áo khoác dù - Kem", existing, incoming, TrackedFields())
	require.NotNil(t, c)
	assert.Equal(t, []string{FieldSellingPrice, FieldStockQuantity, FieldProductName}, c.DifferingFields)
}

func TestApplyReturnsOnlyAcceptedFields(t *testing.T) {
	existing := FieldValues{
		FieldSellingPrice:  decimal.NewFromInt(100000),
		FieldStockQuantity: 3,
	}
	incoming := FieldValues{
		FieldSellingPrice:  decimal.NewFromInt(120000),
		FieldStockQuantity: 10,
	}
	c := Diff("N0048", "", existing, incoming, TrackedFields())
	require.NotNil(t, c)

	merged := Apply(c, []string{FieldSellingPrice})
	require.Len(t, merged, 1)
	assert.True(t, decimal.NewFromInt(120000).Equal(merged[FieldSellingPrice].(decimal.Decimal)))
}

func TestApplyNothingAcceptedYieldsEmptyMerge(t *testing.T) {
	existing := FieldValues{FieldSellingPrice: decimal.NewFromInt(100000)}
	incoming := FieldValues{FieldSellingPrice: decimal.NewFromInt(120000)}
	c := Diff("N0048", "", existing, incoming, TrackedFields())
	require.NotNil(t, c)

	assert.Empty(t, Apply(c, nil))
	assert.Empty(t, Apply(c, []string{}))
}

func TestApplyIgnoresAcceptedFieldsThatDoNotDiffer(t *testing.T) {
	existing := FieldValues{FieldSellingPrice: decimal.NewFromInt(100000)}
	incoming := FieldValues{FieldSellingPrice: decimal.NewFromInt(120000)}
	c := Diff("N0048", "", existing, incoming, TrackedFields())
	require.NotNil(t, c)

	merged := Apply(c, []string{FieldSellingPrice, FieldBarcode, "bogus"})
	assert.Len(t, merged, 1)
}

func TestApplyNilConflict(t *testing.T) {
	assert.Empty(t, Apply(nil, []string{FieldSellingPrice}))
}
