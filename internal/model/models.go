package model

import (
	"fmt"
	"net"
	"strconv"

	"firewall-rule-engine/internal/utils"
)

type Action string // "ALLOW", "DENY"

const (
	Allow Action = "ALLOW"
	Deny  Action = "DENY"
)

type Direction string // "IN", "OUT"

const (
	In  Direction = "IN"
	Out Direction = "OUT"
)

type Protocol string // "TCP", "UDP", "ICMP", "ANY"

const (
	TCP  Protocol = "TCP"
	UDP  Protocol = "UDP"
	ICMP Protocol = "ICMP"
	Any  Protocol = "ANY"
)

var (
	Actions    = []Action{Allow, Deny}
	Directions = []Direction{In, Out}
	Protocols  = []Protocol{TCP, UDP, ICMP, Any}
)

// AllowsPorts reports whether a ports field may follow the protocol.
func (p Protocol) AllowsPorts() bool {
	return p == TCP || p == UDP || p == Any
}

type AddressKind string // "any", "ip", "cidr"

const (
	AddressAny  AddressKind = "any"
	AddressIP   AddressKind = "ip"
	AddressCIDR AddressKind = "cidr"
)

type AddressSpec struct {
	Kind      AddressKind `json:"kind" yaml:"kind"`
	IP        net.IP      `json:"ip,omitempty" yaml:"ip,omitempty"`
	PrefixLen int         `json:"prefixLength,omitempty" yaml:"prefixLength,omitempty"`
}

// Network returns the address as a network. Any is 0.0.0.0/0 and a single
// IP is a /32.
func (a AddressSpec) Network() *net.IPNet {
	switch a.Kind {
	case AddressIP:
		return &net.IPNet{IP: a.IP.To4(), Mask: net.CIDRMask(32, 32)}
	case AddressCIDR:
		mask := net.CIDRMask(a.PrefixLen, 32)
		return &net.IPNet{IP: a.IP.To4().Mask(mask), Mask: mask}
	default:
		return &net.IPNet{IP: net.IPv4zero.To4(), Mask: net.CIDRMask(0, 32)}
	}
}

// Hosts returns how many IPv4 addresses a covers.
func (a AddressSpec) Hosts() uint64 {
	return utils.CIDRSize(a.Network())
}

func (a AddressSpec) String() string {
	switch a.Kind {
	case AddressIP:
		return "ip:" + a.IP.String()
	case AddressCIDR:
		return fmt.Sprintf("cidr:%s/%d", a.IP, a.PrefixLen)
	default:
		return "any"
	}
}

type PortSpec struct {
	Start   int    `json:"start" yaml:"start"`
	End     int    `json:"end" yaml:"end"`
	IsRange bool   `json:"isRange" yaml:"isRange"`
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
}

func (p PortSpec) String() string {
	if p.IsRange {
		return strconv.Itoa(p.Start) + "-" + strconv.Itoa(p.End)
	}
	return strconv.Itoa(p.Start)
}

type ParsedRule struct {
	Line      int           `json:"line" yaml:"line"`
	Action    Action        `json:"action" yaml:"action"`
	Addresses []AddressSpec `json:"addresses" yaml:"addresses"`
	Direction Direction     `json:"direction" yaml:"direction"`
	Protocol  Protocol      `json:"protocol" yaml:"protocol"`
	Ports     []PortSpec    `json:"ports,omitempty" yaml:"ports,omitempty"`
}

type ValidationError struct {
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

type ValidationResult struct {
	Valid     bool              `json:"valid" yaml:"valid"`
	Errors    []ValidationError `json:"errors" yaml:"errors"`
	RuleCount int               `json:"ruleCount" yaml:"ruleCount"`
}

// RuleDocument is one unit of rule text, e.g. a file or a network profile.
type RuleDocument struct {
	Name   string
	Source string // "file", "stdin", "mariadb", "sqlite"
	Text   string
}

type DocumentReport struct {
	Name   string           `json:"name" yaml:"name"`
	Source string           `json:"source" yaml:"source"`
	Result ValidationResult `json:"result" yaml:"result"`
}
