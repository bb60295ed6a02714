package highlight

import (
	"strings"

	"firewall-rule-engine/internal/utils"
)

// highlightRule wraps the recognized pieces of the rule portion of a line in
// a single left-to-right pass. The output matches what these ordered,
// case-insensitive substitutions produce when applied one after another:
//
//	\b(ALLOW|DENY)\b            -> syntax-action
//	\b(IN|OUT)\b                -> syntax-direction
//	\b(tcp|udp|icmp|any)\b      -> syntax-protocol
//	ip:\d+\.\d+\.\d+\.\d+       -> syntax-address
//	cidr:\d+\.\d+\.\d+\.\d+/\d+ -> syntax-address
//	\bany\b                     -> syntax-any (text forced to "any")
//	ports?:[0-9,-]+             -> syntax-port
//
// A bare "any" therefore ends up as a syntax-any span nested inside a
// syntax-protocol span. Because address spans are inserted before the bare
// "any" pass, their edges act as word boundaries for "any" only.
func highlightRule(s string) string {
	var b strings.Builder
	lit := 0 // start of pending literal text
	emit := func(pos int, markup string) {
		b.WriteString(escape(s[lit:pos]))
		b.WriteString(markup)
	}

	afterAddress := false
	for pos := 0; pos < len(s); {
		boundary := pos == 0 || !isWordByte(s[pos-1])

		if boundary && isWordByte(s[pos]) {
			end := wordEnd(s, pos)
			if markup, ok := keyword(s[pos:end]); ok {
				emit(pos, markup)
				pos, lit, afterAddress = end, end, false
				continue
			}
		}

		if (boundary || afterAddress) && bareAny(s, pos) {
			emit(pos, span(ClassAny, "any"))
			pos += 3
			lit, afterAddress = pos, false
			continue
		}

		if n := matchAddress(s, pos); n > 0 {
			emit(pos, span(ClassAddress, s[pos:pos+n]))
			pos += n
			lit, afterAddress = pos, true
			continue
		}

		if n := matchPorts(s, pos); n > 0 {
			emit(pos, span(ClassPort, s[pos:pos+n]))
			pos += n
			lit, afterAddress = pos, false
			continue
		}

		pos++
		afterAddress = false
	}
	b.WriteString(escape(s[lit:]))
	return b.String()
}

func keyword(word string) (string, bool) {
	switch strings.ToUpper(word) {
	case "ALLOW", "DENY":
		return span(ClassAction, word), true
	case "IN", "OUT":
		return span(ClassDirection, word), true
	case "TCP", "UDP", "ICMP":
		return span(ClassProtocol, word), true
	case "ANY":
		return span(ClassProtocol, span(ClassAny, "any")), true
	}
	return "", false
}

// bareAny reports an "any" at pos whose right edge is a word boundary or the
// start of an address.
func bareAny(s string, pos int) bool {
	if !utils.HasPrefixFoldASCII(s[pos:], "any") {
		return false
	}
	next := pos + 3
	return next == len(s) || !isWordByte(s[next]) || matchAddress(s, next) > 0
}

// matchAddress returns the length of an ip: or cidr: literal at pos, or 0.
func matchAddress(s string, pos int) int {
	if n := matchPrefixFold(s, pos, "ip:"); n > 0 {
		if q := matchQuad(s, pos+n); q > 0 {
			return n + q
		}
		return 0
	}
	if n := matchPrefixFold(s, pos, "cidr:"); n > 0 {
		q := matchQuad(s, pos+n)
		if q == 0 {
			return 0
		}
		end := pos + n + q
		if end < len(s) && s[end] == '/' {
			if d := digitsAt(s, end+1); d > 0 {
				return n + q + 1 + d
			}
		}
	}
	return 0
}

// matchQuad matches \d+\.\d+\.\d+\.\d+ at pos.
func matchQuad(s string, pos int) int {
	i := pos
	for octet := 0; octet < 4; octet++ {
		if octet > 0 {
			if i >= len(s) || s[i] != '.' {
				return 0
			}
			i++
		}
		d := digitsAt(s, i)
		if d == 0 {
			return 0
		}
		i += d
	}
	return i - pos
}

// matchPorts matches ports?:[0-9,-]+ at pos.
func matchPorts(s string, pos int) int {
	n := matchPrefixFold(s, pos, "ports:")
	if n == 0 {
		n = matchPrefixFold(s, pos, "port:")
	}
	if n == 0 {
		return 0
	}
	i := pos + n
	for i < len(s) && (isDigit(s[i]) || s[i] == ',' || s[i] == '-') {
		i++
	}
	if i == pos+n {
		return 0
	}
	return i - pos
}

func matchPrefixFold(s string, pos int, prefix string) int {
	if !utils.HasPrefixFoldASCII(s[pos:], prefix) {
		return 0
	}
	return len(prefix)
}

func digitsAt(s string, pos int) int {
	i := pos
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i - pos
}

func wordEnd(s string, pos int) int {
	for pos < len(s) && isWordByte(s[pos]) {
		pos++
	}
	return pos
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWordByte(c byte) bool {
	return c == '_' || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
