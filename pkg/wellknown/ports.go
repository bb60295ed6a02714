package wellknown

import (
	"bytes"
	"encoding/csv"
	"io"
	"log"
	"strconv"
	"strings"

	_ "embed"

	"firewall-rule-engine/internal/model"
)

//go:embed well_known_ports.csv
var wellKnownPortsData string

type ServiceEntry struct {
	Protocol model.Protocol
	Port     int
}

var portRegistry map[ServiceEntry]string

func init() {
	portRegistry = make(map[ServiceEntry]string)
	reader := csv.NewReader(bytes.NewBufferString(wellKnownPortsData))
	reader.TrimLeadingSpace = true
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Fatalf("Failed to read header from embedded well_known_ports.csv: %v", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to parse embedded well_known_ports.csv: %v", err)
		}
		if len(record) < 3 {
			continue
		}

		port, err := strconv.Atoi(record[0])
		if err != nil {
			continue // Skip if port is not a valid number
		}

		register(record[1], ServiceEntry{Protocol: model.TCP, Port: port})
		register(record[2], ServiceEntry{Protocol: model.UDP, Port: port})
	}
}

func register(name string, entry ServiceEntry) {
	name = strings.TrimSpace(name)
	if name == "" || name == "N/A" {
		return
	}
	portRegistry[entry] = name
}

// ServiceName returns the well-known name of port under protocol, or "".
// ANY prefers the TCP name and falls back to UDP. ICMP has no ports.
func ServiceName(port int, protocol model.Protocol) string {
	switch protocol {
	case model.TCP, model.UDP:
		return portRegistry[ServiceEntry{Protocol: protocol, Port: port}]
	case model.Any:
		if name, ok := portRegistry[ServiceEntry{Protocol: model.TCP, Port: port}]; ok {
			return name
		}
		return portRegistry[ServiceEntry{Protocol: model.UDP, Port: port}]
	}
	return ""
}
