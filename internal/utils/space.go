package utils

import "strings"

// IsSpace matches the whitespace set the policy console trims and splits
// rule text on. It differs from unicode.IsSpace: U+FEFF counts, U+0085 does
// not.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

func TrimSpace(s string) string {
	return strings.TrimFunc(s, IsSpace)
}

func Fields(s string) []string {
	return strings.FieldsFunc(s, IsSpace)
}
