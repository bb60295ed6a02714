package utils

import "net"

// ParseDottedQuad parses an IPv4 address written as exactly four decimal
// octets. Each octet must be its own canonical form: "01" and "+1" are
// rejected, "0" is accepted.
func ParseDottedQuad(s string) (net.IP, bool) {
	var octets [4]byte
	n := 0
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '.' {
			continue
		}
		if n == 4 {
			return nil, false
		}
		v, ok := parseOctet(s[start:i])
		if !ok {
			return nil, false
		}
		octets[n] = v
		n++
		start = i + 1
	}
	if n != 4 {
		return nil, false
	}
	return net.IPv4(octets[0], octets[1], octets[2], octets[3]).To4(), true
}

func parseOctet(s string) (byte, bool) {
	if len(s) == 0 || len(s) > 3 {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	v := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	if v > 255 {
		return 0, false
	}
	return byte(v), true
}

// CIDRSize returns the number of addresses in a CIDR network.
func CIDRSize(cidr *net.IPNet) uint64 {
	ones, bits := cidr.Mask.Size()
	return 1 << (bits - ones)
}
