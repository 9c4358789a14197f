// Package codes allocates sequential product codes of the form
// <category letter><zero-padded number>, e.g. N0048, and checks manually
// entered codes for suspicious jumps past the known sequence maximum.
package codes

import (
	"fmt"
	"strings"
)

// GapThreshold is the largest accepted distance between a manually entered
// code number and the current maximum before the caller must confirm it.
const GapThreshold = 10

// minWidth is the zero-pad width used when no wider convention exists yet.
const minWidth = 4

// Code is a parsed base product code.
type Code struct {
	Category byte
	Number   int
	Width    int
}

// Parse splits a base product code into category letter and sequence number.
// Only strict <letter><digits> codes parse; variant codes such as
// "N0048-DEN-M" or "N152A38" do not take part in sequence allocation.
func Parse(code string) (Code, bool) {
	code = strings.TrimSpace(code)
	if len(code) < 2 {
		return Code{}, false
	}
	cat := code[0]
	if !isLetter(cat) {
		return Code{}, false
	}
	digits := code[1:]
	n := 0
	for i := 0; i < len(digits); i++ {
		d := digits[i]
		if d < '0' || d > '9' {
			return Code{}, false
		}
		n = n*10 + int(d-'0')
	}
	return Code{Category: upper(cat), Number: n, Width: len(digits)}, true
}

// MaxSequence scans any number of code lists for the given category and
// returns the highest sequence number in use together with the digit-run
// width of the code that holds it. The caller passes the three production
// sources: in-form draft items, persisted catalog rows, and persisted
// purchase-order item rows.
func MaxSequence(category byte, sources ...[]string) (max int, width int) {
	category = upper(category)
	for _, source := range sources {
		for _, raw := range source {
			c, ok := Parse(raw)
			if !ok || c.Category != category {
				continue
			}
			if c.Number > max || (c.Number == max && c.Width > width) {
				max = c.Number
				width = c.Width
			}
		}
	}
	return max, width
}

// NextCode returns the next unused code for the category across all sources,
// zero-padded to the wider of four digits and the existing convention.
// With a maximum N-number of 47 the result is "N0048".
func NextCode(category byte, sources ...[]string) string {
	max, width := MaxSequence(category, sources...)
	if width < minWidth {
		width = minWidth
	}
	return fmt.Sprintf("%c%0*d", upper(category), width, max+1)
}

// GapCheck reports how far a candidate code jumps past the known maximum.
type GapCheck struct {
	Gap   int  `json:"gap"`
	Large bool `json:"large"`
}

// CheckGap computes the numeric distance between a user-typed candidate code
// and the cross-source maximum. A gap above GapThreshold is flagged so the
// caller can require confirmation before creating a far-ahead code. A
// candidate that does not match <letter><digits> opts out: the check is a
// no-op, not an error.
func CheckGap(candidate string, maxUsed int) GapCheck {
	c, ok := Parse(candidate)
	if !ok {
		return GapCheck{}
	}
	gap := c.Number - maxUsed
	return GapCheck{Gap: gap, Large: gap > GapThreshold}
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
