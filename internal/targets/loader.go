package targets

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"connprobe/internal/probe"
)

// defaultPort is assumed for entries given as a bare hostname.
const defaultPort = 80

// DefaultEndpoints is probed when no endpoints are supplied at all.
func DefaultEndpoints() []probe.Endpoint {
	return []probe.Endpoint{
		{Host: "google.com", Port: 443},
		{Host: "cloudflare.com", Port: 443},
		{Host: "github.com", Port: 443},
	}
}

// ParseEndpoint accepts "host", "host:port" or "[ipv6]:port" and applies the
// given IP version to the result.
func ParseEndpoint(s string, version probe.IPVersion) (probe.Endpoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return probe.Endpoint{}, fmt.Errorf("empty endpoint")
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port part; treat the whole string as a hostname.
		host = s
		portStr = strconv.Itoa(defaultPort)
	}
	if host == "" {
		return probe.Endpoint{}, fmt.Errorf("endpoint %q has no host", s)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return probe.Endpoint{}, fmt.Errorf("endpoint %q has invalid port %q", s, portStr)
	}

	return probe.Endpoint{Host: host, Port: uint16(port), IPVersion: version}, nil
}

// FromArgs parses command line endpoint arguments.
func FromArgs(args []string, version probe.IPVersion) ([]probe.Endpoint, error) {
	endpoints := make([]probe.Endpoint, 0, len(args))
	for _, arg := range args {
		ep, err := ParseEndpoint(arg, version)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// LoadFile reads one endpoint per line. Blank lines and '#' comments are
// skipped.
func LoadFile(path string, version probe.IPVersion) ([]probe.Endpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open endpoints file: %w", err)
	}
	defer f.Close()

	var endpoints []probe.Endpoint
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ep, err := ParseEndpoint(text, version)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		endpoints = append(endpoints, ep)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read endpoints file: %w", err)
	}

	return endpoints, nil
}
