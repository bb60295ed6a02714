package parser

import (
	"strings"

	"firewall-rule-engine/internal/model"
	"firewall-rule-engine/internal/utils"
)

const (
	ipPrefix   = "ip:"
	cidrPrefix = "cidr:"
)

// isAddressToken reports whether tok belongs to the address list. A token
// that looks like an address but fails validation still ends the rule with an
// address error rather than being treated as the direction.
func isAddressToken(tok string) bool {
	return utils.EqualFoldASCII(tok, "any") ||
		utils.HasPrefixFoldASCII(tok, ipPrefix) ||
		utils.HasPrefixFoldASCII(tok, cidrPrefix)
}

// parseAddress returns the address tok names, or a non-empty message.
func parseAddress(tok string) (model.AddressSpec, string) {
	switch {
	case utils.EqualFoldASCII(tok, "any"):
		return model.AddressSpec{Kind: model.AddressAny}, ""

	case utils.HasPrefixFoldASCII(tok, ipPrefix):
		value := tok[len(ipPrefix):]
		ip, ok := utils.ParseDottedQuad(value)
		if !ok {
			return model.AddressSpec{}, msgInvalidIP(value)
		}
		return model.AddressSpec{Kind: model.AddressIP, IP: ip, PrefixLen: 32}, ""

	case utils.HasPrefixFoldASCII(tok, cidrPrefix):
		value := tok[len(cidrPrefix):]
		spec, ok := parseCIDR(value)
		if !ok {
			return model.AddressSpec{}, msgInvalidCIDR(value)
		}
		return spec, ""
	}
	return model.AddressSpec{}, msgInvalidAddress(tok)
}

func parseCIDR(value string) (model.AddressSpec, bool) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return model.AddressSpec{}, false
	}
	ip, ok := utils.ParseDottedQuad(parts[0])
	if !ok {
		return model.AddressSpec{}, false
	}
	prefix, ok := parseLeadingInt(parts[1])
	if !ok || prefix < 0 || prefix > 32 {
		return model.AddressSpec{}, false
	}
	return model.AddressSpec{Kind: model.AddressCIDR, IP: ip, PrefixLen: prefix}, true
}
