// Package catalog holds the static product attribute reference data: named
// attributes, each with an ordered list of permissible values and a short
// code per value. The catalog is loaded once at startup and never mutated.
package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Value is a single selectable attribute value, e.g. {Đen, DEN}.
type Value struct {
	Name      string `json:"name"`
	ShortCode string `json:"shortCode"`
}

// Attribute is a named attribute with its ordered value list.
type Attribute struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

// Catalog is an ordered set of attributes. Declaration order doubles as the
// matching priority order when parsing variant signatures: the first
// attribute whose value list matches a token claims it.
type Catalog struct {
	attributes []Attribute
	byName     map[string]int
}

// New builds a catalog from the given attributes, preserving their order.
// Values without a short code get one derived from their name.
func New(attrs []Attribute) *Catalog {
	c := &Catalog{
		attributes: make([]Attribute, len(attrs)),
		byName:     make(map[string]int, len(attrs)),
	}
	for i, attr := range attrs {
		values := make([]Value, len(attr.Values))
		for j, v := range attr.Values {
			if v.ShortCode == "" {
				v.ShortCode = DeriveShortCode(v.Name)
			}
			values[j] = v
		}
		c.attributes[i] = Attribute{ID: attr.ID, Name: attr.Name, Values: values}
		c.byName[strings.ToLower(attr.Name)] = i
	}
	return c
}

// Default returns the built-in attribute catalog used when the database has
// no attribute rows yet. Order matters: color is matched before letter sizes,
// letter sizes before numeric sizes.
func Default() *Catalog {
	return New([]Attribute{
		{
			ID:   "mau-sac",
			Name: "Màu sắc",
			Values: []Value{
				{Name: "Đen", ShortCode: "DEN"},
				{Name: "Trắng", ShortCode: "TRANG"},
				{Name: "Xám", ShortCode: "XAM"},
				{Name: "Đỏ", ShortCode: "DO"},
				{Name: "Xanh", ShortCode: "XANH"},
				{Name: "Vàng", ShortCode: "VANG"},
				{Name: "Hồng", ShortCode: "HONG"},
				{Name: "Nâu", ShortCode: "NAU"},
				{Name: "Kem", ShortCode: "KEM"},
				{Name: "Rêu", ShortCode: "REU"},
			},
		},
		{
			ID:   "size-chu",
			Name: "Size Chữ",
			Values: []Value{
				{Name: "S", ShortCode: "S"},
				{Name: "M", ShortCode: "M"},
				{Name: "L", ShortCode: "L"},
				{Name: "XL", ShortCode: "XL"},
				{Name: "XXL", ShortCode: "XXL"},
				{Name: "XXXL", ShortCode: "XXXL"},
			},
		},
		{
			ID:   "size-so",
			Name: "Size Số",
			Values: []Value{
				{Name: "28", ShortCode: "28"},
				{Name: "29", ShortCode: "29"},
				{Name: "30", ShortCode: "30"},
				{Name: "31", ShortCode: "31"},
				{Name: "32", ShortCode: "32"},
				{Name: "33", ShortCode: "33"},
				{Name: "34", ShortCode: "34"},
				{Name: "35", ShortCode: "35"},
				{Name: "36", ShortCode: "36"},
				{Name: "37", ShortCode: "37"},
				{Name: "38", ShortCode: "38"},
				{Name: "39", ShortCode: "39"},
				{Name: "40", ShortCode: "40"},
			},
		},
	})
}

// Attributes returns the attributes in priority order.
func (c *Catalog) Attributes() []Attribute {
	return c.attributes
}

// AttributeByName looks up an attribute by name, case-insensitively.
func (c *Catalog) AttributeByName(name string) (Attribute, bool) {
	if i, ok := c.byName[strings.ToLower(name)]; ok {
		return c.attributes[i], true
	}
	// Fall back to a fold-aware scan for names whose simple lowercasing
	// differs from the stored form.
	for _, attr := range c.attributes {
		if strings.EqualFold(attr.Name, name) {
			return attr, true
		}
	}
	return Attribute{}, false
}

// FindValue looks up a value by name under the given attribute,
// case-insensitively. Returns the canonical value with its short code.
func (c *Catalog) FindValue(attrName, valueName string) (Value, bool) {
	attr, ok := c.AttributeByName(attrName)
	if !ok {
		return Value{}, false
	}
	for _, v := range attr.Values {
		if strings.EqualFold(v.Name, valueName) {
			return v, true
		}
	}
	return Value{}, false
}

// ShortCode returns the short code for an attribute value.
func (c *Catalog) ShortCode(attrName, valueName string) (string, bool) {
	v, ok := c.FindValue(attrName, valueName)
	if !ok {
		return "", false
	}
	return v.ShortCode, true
}

// MatchValue scans attributes in priority order and returns the first
// attribute owning a value whose name matches the token case-insensitively.
func (c *Catalog) MatchValue(token string) (Attribute, Value, bool) {
	for _, attr := range c.attributes {
		for _, v := range attr.Values {
			if strings.EqualFold(v.Name, token) {
				return attr, v, true
			}
		}
	}
	return Attribute{}, Value{}, false
}

var shortCodeStrip = regexp.MustCompile(`[^A-Z0-9]+`)

// foldDiacritics is an NFD decomposition that drops combining marks,
// turning "Trắng" into "Trang". Đ/đ carry their stroke as part of the base
// letter, so they are mapped separately.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// DeriveShortCode derives an uppercase ASCII short code from a value name:
// diacritics folded, Đ mapped to D, everything non-alphanumeric stripped.
// "Đen" -> "DEN", "Trắng" -> "TRANG", "38" -> "38".
func DeriveShortCode(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		switch r {
		case 'Đ':
			return 'D'
		case 'đ':
			return 'd'
		}
		return r
	}, folded)
	return shortCodeStrip.ReplaceAllString(strings.ToUpper(folded), "")
}

// Slugify builds a URL-safe slug from a (possibly Vietnamese) display name.
func Slugify(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		switch r {
		case 'Đ':
			return 'D'
		case 'đ':
			return 'd'
		}
		return r
	}, folded)
	slug := strings.ToLower(folded)
	slug = strings.ReplaceAll(slug, " ", "-")
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
