package parser

import "fmt"

// Messages are matched verbatim by the console and its tests.
const (
	msgIncomplete      = "Incomplete rule. Expected: ACTION ADDRESS DIRECTION PROTOCOL [PORTS]"
	msgNoAddress       = "No address specified. Use ip:x.x.x.x, cidr:x.x.x.x/xx, or any."
	msgMissingDir      = "Missing direction. Must specify IN or OUT."
	msgMissingProto    = "Missing protocol. Must specify tcp, udp, icmp, or any."
	msgPortFormat      = "Invalid port format. Use port:443 or port:80,443."
	msgPortsNeedTCPUDP = "Ports can only be specified for TCP or UDP protocols."
)

func msgInvalidAction(tok string) string {
	return fmt.Sprintf("Invalid action \"%s\". Must be ALLOW or DENY.", tok)
}

func msgInvalidDirection(tok string) string {
	return fmt.Sprintf("Invalid direction \"%s\". Must be IN or OUT.", tok)
}

func msgInvalidProtocol(tok string) string {
	return fmt.Sprintf("Invalid protocol \"%s\". Must be tcp, udp, icmp, or any.", tok)
}

func msgInvalidIP(value string) string {
	return fmt.Sprintf("Invalid IP address \"%s\".", value)
}

func msgInvalidCIDR(value string) string {
	return fmt.Sprintf("Invalid CIDR notation \"%s\".", value)
}

func msgInvalidAddress(tok string) string {
	return fmt.Sprintf("Invalid address format \"%s\". Use ip:, cidr:, or any.", tok)
}

func msgMalformedRange(part string) string {
	return fmt.Sprintf("Invalid port range \"%s\".", part)
}

func msgRangeBounds(part string) string {
	return fmt.Sprintf("Invalid port range \"%s\". Ports must be 1-65535.", part)
}

func msgInvalidPort(part string) string {
	return fmt.Sprintf("Invalid port \"%s\". Ports must be 1-65535.", part)
}
