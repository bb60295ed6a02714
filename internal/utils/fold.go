package utils

// EqualFoldASCII reports whether s equals the lowercase ASCII word lower,
// folding ASCII letters only. Non-ASCII runes never match, so "İP" is not
// "ip" even though unicode lowercasing would say so.
func EqualFoldASCII(s, lower string) bool {
	if len(s) != len(lower) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lower[i] {
			return false
		}
	}
	return true
}

// HasPrefixFoldASCII is the prefix form of EqualFoldASCII. When it returns
// true, s[len(prefix):] is the remainder in the original bytes.
func HasPrefixFoldASCII(s, prefix string) bool {
	return len(s) >= len(prefix) && EqualFoldASCII(s[:len(prefix)], prefix)
}
