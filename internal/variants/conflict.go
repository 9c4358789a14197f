package variants

import (
	"reflect"

	"github.com/shopspring/decimal"
)

// Field names tracked by conflict reconciliation. These are the only fields
// a regeneration is allowed to overwrite on an existing catalog row.
const (
	FieldSellingPrice     = "selling_price"
	FieldPurchasePrice    = "purchase_price"
	FieldBarcode          = "barcode"
	FieldStockQuantity    = "stock_quantity"
	FieldProductName      = "product_name"
	FieldVariantSignature = "variant_signature"
)

// TrackedFields returns the default allow-list of reconciled fields.
func TrackedFields() []string {
	return []string{
		FieldSellingPrice,
		FieldPurchasePrice,
		FieldBarcode,
		FieldStockQuantity,
		FieldProductName,
		FieldVariantSignature,
	}
}

// FieldValues maps tracked field names to their concrete values.
type FieldValues map[string]interface{}

// Conflict records every tracked field that differs between an existing
// catalog row and a freshly computed variant sharing its code. It exists
// only until a human accepts or skips each field.
type Conflict struct {
	ProductCode     string      `json:"productCode"`
	VariantName     string      `json:"variantName"`
	OldFields       FieldValues `json:"oldFields"`
	NewFields       FieldValues `json:"newFields"`
	DifferingFields []string    `json:"differingFields"`
}

// Diff compares only the tracked fields between the existing record and the
// incoming one. It returns nil when nothing tracked differs; otherwise a
// Conflict naming exactly the differing fields with both values. Fields the
// incoming record does not carry are skipped: absence is not a change.
func Diff(productCode, variantName string, existing, incoming FieldValues, tracked []string) *Conflict {
	c := &Conflict{
		ProductCode: productCode,
		VariantName: variantName,
		OldFields:   FieldValues{},
		NewFields:   FieldValues{},
	}
	for _, field := range tracked {
		newVal, ok := incoming[field]
		if !ok {
			continue
		}
		oldVal := existing[field]
		if equalField(oldVal, newVal) {
			continue
		}
		c.OldFields[field] = oldVal
		c.NewFields[field] = newVal
		c.DifferingFields = append(c.DifferingFields, field)
	}
	if len(c.DifferingFields) == 0 {
		return nil
	}
	return c
}

// Apply returns the accepted subset of the incoming fields for the
// persistence layer to write. Fields not accepted are left untouched in
// storage: this is a human-in-the-loop merge, never last-write-wins, so a
// manually corrected stock count is not clobbered by a stale recomputation.
func Apply(c *Conflict, accepted []string) FieldValues {
	merged := FieldValues{}
	if c == nil {
		return merged
	}
	acceptedSet := make(map[string]bool, len(accepted))
	for _, f := range accepted {
		acceptedSet[f] = true
	}
	for _, field := range c.DifferingFields {
		if acceptedSet[field] {
			merged[field] = c.NewFields[field]
		}
	}
	return merged
}

// equalField compares two field values. Decimals compare by value, so
// 100000 and 100000.00 are the same price; everything else falls back to
// deep equality on the concrete types.
func equalField(a, b interface{}) bool {
	if ad, ok := a.(decimal.Decimal); ok {
		if bd, ok := b.(decimal.Decimal); ok {
			return ad.Equal(bd)
		}
	}
	return reflect.DeepEqual(a, b)
}
