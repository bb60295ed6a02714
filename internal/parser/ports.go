package parser

import (
	"strings"

	"firewall-rule-engine/internal/model"
	"firewall-rule-engine/internal/utils"
)

const (
	minPort = 1
	maxPort = 65535
)

func isPortsToken(tok string) bool {
	return utils.HasPrefixFoldASCII(tok, "port:") || utils.HasPrefixFoldASCII(tok, "ports:")
}

// parsePorts parses "port:80,443,8000-8080". Parts are checked left to right
// and the first bad one decides the message.
func parsePorts(tok string) ([]model.PortSpec, string) {
	colon := strings.IndexByte(tok, ':')
	if colon == -1 {
		return nil, msgPortFormat
	}

	var specs []model.PortSpec
	for _, part := range strings.Split(tok[colon+1:], ",") {
		if strings.Contains(part, "-") {
			bounds := strings.Split(part, "-")
			if len(bounds) != 2 {
				return nil, msgMalformedRange(part)
			}
			start, okStart := parseLeadingInt(bounds[0])
			end, okEnd := parseLeadingInt(bounds[1])
			if !okStart || !okEnd || start < minPort || end > maxPort || start > end {
				return nil, msgRangeBounds(part)
			}
			specs = append(specs, model.PortSpec{Start: start, End: end, IsRange: true})
			continue
		}

		port, ok := parseLeadingInt(part)
		if !ok || port < minPort || port > maxPort {
			return nil, msgInvalidPort(part)
		}
		specs = append(specs, model.PortSpec{Start: port, End: port})
	}
	return specs, ""
}
