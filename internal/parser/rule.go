package parser

import (
	"slices"
	"strings"

	"firewall-rule-engine/internal/model"
	"firewall-rule-engine/internal/utils"
)

// ParseRule walks one effective rule line:
//
//	ACTION ADDRESS... DIRECTION PROTOCOL [PORTS]
//
// It stops at the first problem and returns exactly one error for the line.
// Tokens after the optional ports field are not inspected.
func ParseRule(candidate string, line int) (model.ParsedRule, *model.ValidationError) {
	fail := func(msg string) (model.ParsedRule, *model.ValidationError) {
		return model.ParsedRule{}, &model.ValidationError{Line: line, Message: msg}
	}

	parts := utils.Fields(candidate)
	if len(parts) < 4 {
		return fail(msgIncomplete)
	}

	rule := model.ParsedRule{Line: line}

	action := model.Action(strings.ToUpper(parts[0]))
	if !slices.Contains(model.Actions, action) {
		return fail(msgInvalidAction(parts[0]))
	}
	rule.Action = action

	i := 1
	for i < len(parts) && isAddressToken(parts[i]) {
		addr, msg := parseAddress(parts[i])
		if msg != "" {
			return fail(msg)
		}
		rule.Addresses = append(rule.Addresses, addr)
		i++
	}
	if len(rule.Addresses) == 0 {
		return fail(msgNoAddress)
	}

	if i >= len(parts) {
		return fail(msgMissingDir)
	}
	direction := model.Direction(strings.ToUpper(parts[i]))
	if !slices.Contains(model.Directions, direction) {
		return fail(msgInvalidDirection(parts[i]))
	}
	rule.Direction = direction
	i++

	if i >= len(parts) {
		return fail(msgMissingProto)
	}
	protocol := model.Protocol(strings.ToUpper(parts[i]))
	if !slices.Contains(model.Protocols, protocol) {
		return fail(msgInvalidProtocol(parts[i]))
	}
	rule.Protocol = protocol
	i++

	if i < len(parts) && isPortsToken(parts[i]) {
		ports, msg := parsePorts(parts[i])
		if msg != "" {
			return fail(msg)
		}
		// Checked only after the ports themselves parsed.
		if !protocol.AllowsPorts() {
			return fail(msgPortsNeedTCPUDP)
		}
		rule.Ports = ports
	}

	return rule, nil
}
