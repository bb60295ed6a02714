package parser

import (
	"strings"

	"firewall-rule-engine/internal/utils"
)

// parseLeadingInt reads the decimal integer at the start of s and ignores
// whatever follows it, so "80abc" is 80. Leading whitespace and a single sign
// are allowed. Values saturate well above the largest legal port.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, utils.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n < 1_000_000 {
			n = n*10 + int(s[digits]-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
