package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// NewPortBindings parses the short port syntax
// "[host_ip:][host:]container[-range][/protocol]" into PortBindings,
// expanding port ranges such as "8080-8081:80-81" into one binding per
// pair. A binding without a host section publishes nothing on the host.
func NewPortBindings(portLine string) ([]*PortBinding, error) {
	var protocol string

	if i := strings.IndexByte(portLine, '/'); i != -1 {
		protocol = portLine[i+1:]
		portLine = portLine[:i]

		if protocol != "tcp" && protocol != "udp" {
			return nil, fmt.Errorf(
				"'%s' port has unknown protocol '%s'", portLine, protocol,
			)
		}
	}

	var (
		hostIP string
		parts  = strings.Split(portLine, ":")
	)

	const maxNumParts = 3
	if len(parts) == maxNumParts {
		// 127.0.0.1:8080:80
		hostIP = parts[0]
		parts = parts[1:]
	}

	switch len(parts) {
	case 1:
		containerPorts, err := parsePortRange(parts[0])
		if err != nil {
			return nil, err
		}

		bindings := make([]*PortBinding, len(containerPorts))
		for i, containerPort := range containerPorts {
			bindings[i] = &PortBinding{
				Container: containerPort,
				Protocol:  protocol,
			}
		}

		return bindings, nil
	case 2: // nolint: gomnd
		hostPorts, err := parsePortRange(parts[0])
		if err != nil {
			return nil, err
		}

		containerPorts, err := parsePortRange(parts[1])
		if err != nil {
			return nil, err
		}

		if len(hostPorts) != len(containerPorts) {
			return nil, fmt.Errorf(
				"'%s' port ranges are of unequal length", portLine,
			)
		}

		bindings := make([]*PortBinding, len(hostPorts))
		for i := range hostPorts {
			bindings[i] = &PortBinding{
				HostIP:    hostIP,
				Host:      hostPorts[i],
				Container: containerPorts[i],
				Protocol:  protocol,
			}
		}

		return bindings, nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid port binding", portLine)
	}
}

func parsePortRange(portRange string) ([]uint16, error) {
	const maxNumBounds = 2

	bounds := strings.SplitN(portRange, "-", maxNumBounds)

	low, err := parsePort(bounds[0])
	if err != nil {
		return nil, err
	}

	if len(bounds) == 1 {
		return []uint16{low}, nil
	}

	high, err := parsePort(bounds[1])
	if err != nil {
		return nil, err
	}

	if high < low {
		return nil, fmt.Errorf("'%s' port range is inverted", portRange)
	}

	ports := make([]uint16, 0, high-low+1)
	for port := low; ; port++ {
		ports = append(ports, port)

		if port == high {
			break
		}
	}

	return ports, nil
}

func parsePort(port string) (uint16, error) {
	const (
		base    = 10
		bitSize = 16
	)

	parsed, err := strconv.ParseUint(port, base, bitSize)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf(
			"'%s' is not a valid port - ports range from 1 to 65535", port,
		)
	}

	return uint16(parsed), nil
}
