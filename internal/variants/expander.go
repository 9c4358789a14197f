// Package variants turns a base product plus selected attribute lines into
// the full cartesian product of concrete variants, renders and parses the
// canonical variant signature string, and reconciles freshly generated
// variants against existing catalog rows field by field.
package variants

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"liveshop-service/internal/catalog"
)

// ErrNoAttributeLines is returned when expansion is requested without at
// least one attribute line carrying catalog-known values.
var ErrNoAttributeLines = errors.New("at least one attribute line with selected values is required")

// numericSizeSeparator disambiguates purely numeric suffixes from the base
// code's own trailing digits: N152 + size 38 becomes N152A38, not N152-38.
const numericSizeSeparator = "A"

// BaseProduct describes the parent catalog entry variants are generated
// against.
type BaseProduct struct {
	Code      string
	Name      string
	ListPrice decimal.Decimal
}

// AttributeLine is one user selection: an attribute and the value names
// picked from it, in selection order.
type AttributeLine struct {
	AttributeID    string   `json:"attributeId"`
	AttributeName  string   `json:"attributeName"`
	SelectedValues []string `json:"selectedValues"`
}

// GeneratedVariant is one element of the cartesian product. Code and Name
// are derived deterministically from the base product and the value
// combination; SourceLines carries the resolved lines the whole batch was
// generated from.
type GeneratedVariant struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	AttributeValues []string        `json:"attributeValues"`
	SourceLines     []AttributeLine `json:"sourceLines"`
}

type resolvedLine struct {
	line   AttributeLine
	values []catalog.Value
}

// ResolveLines filters the selections against the catalog: unknown values
// are silently dropped, lines left empty disappear, and surviving lines come
// back with canonical attribute and value names. Order is preserved.
func ResolveLines(cat *catalog.Catalog, lines []AttributeLine) []AttributeLine {
	resolved := resolveLines(cat, lines)
	out := make([]AttributeLine, len(resolved))
	for i, rl := range resolved {
		out[i] = rl.line
	}
	return out
}

func resolveLines(cat *catalog.Catalog, lines []AttributeLine) []resolvedLine {
	resolved := make([]resolvedLine, 0, len(lines))
	for _, line := range lines {
		attr, ok := cat.AttributeByName(line.AttributeName)
		if !ok {
			continue
		}
		values := make([]catalog.Value, 0, len(line.SelectedValues))
		names := make([]string, 0, len(line.SelectedValues))
		for _, name := range line.SelectedValues {
			v, ok := cat.FindValue(attr.Name, name)
			if !ok {
				continue
			}
			values = append(values, v)
			names = append(names, v.Name)
		}
		if len(values) == 0 {
			continue
		}
		resolved = append(resolved, resolvedLine{
			line: AttributeLine{
				AttributeID:    attr.ID,
				AttributeName:  attr.Name,
				SelectedValues: names,
			},
			values: values,
		})
	}
	return resolved
}

// Expand produces the cartesian product of the selected values as concrete
// variant descriptors. Attribute order and per-attribute selection order are
// preserved, so the output is deterministic: exactly the product of the line
// sizes, no duplicate codes. Pure function; the caller persists the result.
func Expand(cat *catalog.Catalog, base BaseProduct, lines []AttributeLine) ([]GeneratedVariant, error) {
	resolved := resolveLines(cat, lines)
	if len(resolved) == 0 {
		return nil, ErrNoAttributeLines
	}

	sourceLines := make([]AttributeLine, len(resolved))
	for i, rl := range resolved {
		sourceLines[i] = rl.line
	}

	combos := [][]catalog.Value{{}}
	for _, rl := range resolved {
		next := make([][]catalog.Value, 0, len(combos)*len(rl.values))
		for _, combo := range combos {
			for _, v := range rl.values {
				extended := make([]catalog.Value, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, v))
			}
		}
		combos = next
	}

	generated := make([]GeneratedVariant, 0, len(combos))
	for _, combo := range combos {
		names := make([]string, len(combo))
		for i, v := range combo {
			names[i] = v.Name
		}
		generated = append(generated, GeneratedVariant{
			Code:            buildVariantCode(base.Code, combo),
			Name:            buildVariantName(base.Name, names),
			AttributeValues: names,
			SourceLines:     sourceLines,
		})
	}
	return generated, nil
}

// buildVariantCode joins the base code with each value's short code using
// "-". A combination consisting of a single purely numeric short code uses
// the letter separator instead, so size-only variants of N152 read N152A38.
func buildVariantCode(baseCode string, combo []catalog.Value) string {
	if len(combo) == 1 && isAllDigits(combo[0].ShortCode) {
		return baseCode + numericSizeSeparator + combo[0].ShortCode
	}
	parts := make([]string, 0, len(combo)+1)
	parts = append(parts, baseCode)
	for _, v := range combo {
		parts = append(parts, v.ShortCode)
	}
	return strings.Join(parts, "-")
}

func buildVariantName(baseName string, valueNames []string) string {
	parts := make([]string, 0, len(valueNames)+1)
	parts = append(parts, baseName)
	parts = append(parts, valueNames...)
	return strings.Join(parts, " - ")
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
