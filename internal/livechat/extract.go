// Package livechat holds the pure logic of the Facebook-comment order
// pipeline: pulling product codes out of free comment text and predicting
// the per-session order index before the authoritative order system answers.
package livechat

import (
	"regexp"
	"strings"
)

// productCodePattern matches base product codes (category letter plus three
// or more digits, e.g. N0048, P012) with optional variant suffixes such as
// N0048-DEN-M. The leading word boundary keeps codes embedded in longer
// alphanumeric runs ("ATN001") from producing phantom matches.
var productCodePattern = regexp.MustCompile(`\b[A-Za-z][0-9]{3,}(?:-[A-Za-z0-9]+)*\b`)

// ExtractProductCodes finds product code tokens in free comment text,
// uppercased and deduplicated, in order of first appearance. Comments are
// ordinary Vietnamese sentences ("Chị lấy N0048 với P012 nhé em"), so
// anything that does not look like a code is ignored.
func ExtractProductCodes(text string) []string {
	matches := productCodePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		code := strings.ToUpper(m)
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}
