package variants

import (
	"strings"

	"liveshop-service/internal/catalog"
)

// FormatSignature renders attribute lines as the canonical signature string:
// one parenthesized group per line in order, values joined by " | ", groups
// joined by a single space, e.g. "(Đen | Trắng) (S | M | L)". Value names
// containing "|" or parentheses are not escaped; the format relies on the
// catalog never using those characters.
func FormatSignature(lines []AttributeLine) string {
	groups := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(line.SelectedValues) == 0 {
			continue
		}
		groups = append(groups, "("+strings.Join(line.SelectedValues, " | ")+")")
	}
	return strings.Join(groups, " ")
}

// ParseSignature decodes a stored signature back into attribute lines.
//
// Groups are the parenthesized spans; a string without parentheses but
// containing "|" is treated as one group. Each group's tokens are matched
// case-insensitively against every attribute's value list in catalog order,
// and the first attribute with at least one match claims the whole group.
// Tokens that match no value under the claiming attribute are dropped, as
// are groups no attribute claims: signatures are display and storage
// artifacts, so partial recovery beats rejecting the whole string. Ambiguous
// tokens shared across attributes resolve by catalog priority, which is the
// long-standing behavior stored signatures depend on.
func ParseSignature(cat *catalog.Catalog, signature string) []AttributeLine {
	groups := extractGroups(signature)
	if len(groups) == 0 && strings.Contains(signature, "|") {
		groups = []string{signature}
	}

	var lines []AttributeLine
	for _, group := range groups {
		tokens := splitTokens(group)
		if len(tokens) == 0 {
			continue
		}
		if line, ok := claimGroup(cat, tokens); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// extractGroups returns the contents of each "(...)" span in order.
// Parentheses are ASCII, so byte scanning is UTF-8 safe.
func extractGroups(s string) []string {
	var groups []string
	for i := 0; i < len(s); i++ {
		if s[i] != '(' {
			continue
		}
		end := strings.IndexByte(s[i+1:], ')')
		if end < 0 {
			break
		}
		groups = append(groups, s[i+1:i+1+end])
		i += end + 1
	}
	return groups
}

func splitTokens(group string) []string {
	raw := strings.Split(group, "|")
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// claimGroup scans attributes in catalog priority order; the first attribute
// whose value list matches at least one token claims the group.
func claimGroup(cat *catalog.Catalog, tokens []string) (AttributeLine, bool) {
	for _, attr := range cat.Attributes() {
		matched := make([]string, 0, len(tokens))
		for _, token := range tokens {
			if v, ok := cat.FindValue(attr.Name, token); ok {
				matched = append(matched, v.Name)
			}
		}
		if len(matched) > 0 {
			return AttributeLine{
				AttributeID:    attr.ID,
				AttributeName:  attr.Name,
				SelectedValues: matched,
			}, true
		}
	}
	return AttributeLine{}, false
}
