package probe

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IPVersion selects the address family used during resolution.
type IPVersion int

const (
	IPAuto IPVersion = iota
	IPv4
	IPv6
)

func (v IPVersion) String() string {
	switch v {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return "auto"
	}
}

// Network returns the network string understood by net.Resolver.
func (v IPVersion) Network() string {
	switch v {
	case IPv4:
		return "ip4"
	case IPv6:
		return "ip6"
	default:
		return "ip"
	}
}

func ParseIPVersion(s string) (IPVersion, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return IPAuto, nil
	case "4", "v4", "ipv4":
		return IPv4, nil
	case "6", "v6", "ipv6":
		return IPv6, nil
	default:
		return IPAuto, fmt.Errorf("unknown ip version: %s", s)
	}
}

// Endpoint identifies one probe target. Host and Port form the identity key
// used by the connection pool and the success-rate tracker.
type Endpoint struct {
	Host      string    `json:"host"`
	Port      uint16    `json:"port"`
	IPVersion IPVersion `json:"ip_version"`
}

func (e Endpoint) Key() string {
	return e.Host + ":" + strconv.Itoa(int(e.Port))
}

// ResultKind is the closed classification taxonomy for a connection attempt.
// Every attempt maps to exactly one kind; unmapped native errors fall into
// ResultUnknownError.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultTimeout
	ResultConnectionRefused
	ResultDNSFailed
	ResultNetworkUnreachable
	ResultUnknownError
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultTimeout:
		return "timeout"
	case ResultConnectionRefused:
		return "connection_refused"
	case ResultDNSFailed:
		return "dns_failed"
	case ResultNetworkUnreachable:
		return "network_unreachable"
	default:
		return "unknown_error"
	}
}

// patternToken is the compact form used in error pattern labels, e.g.
// "consistent_connectionrefused".
func (k ResultKind) patternToken() string {
	return strings.ReplaceAll(k.String(), "_", "")
}

func (k ResultKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Attempt records the outcome of one connection try within a probe.
// Numbers are 1-based and strictly increasing within a probe.
type Attempt struct {
	Number         int        `json:"number"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Result         ResultKind `json:"result"`
	ResponseTimeMs float64    `json:"response_time_ms"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	ResolvedIP     string     `json:"resolved_ip,omitempty"`
}

// EndpointResult aggregates all attempts of one probe against one endpoint.
type EndpointResult struct {
	Endpoint              Endpoint   `json:"endpoint"`
	FinalResult           ResultKind `json:"final_result"`
	Success               bool       `json:"success"`
	BestResponseTimeMs    float64    `json:"best_response_time_ms"`
	AverageResponseTimeMs float64    `json:"average_response_time_ms"`
	Attempts              []Attempt  `json:"attempts"`
	TotalAttempts         int        `json:"total_attempts"`
	SuccessfulAttempts    int        `json:"successful_attempts"`
	FailureRate           float64    `json:"failure_rate"`
	RecommendedAction     string     `json:"recommended_action"`
	ErrorPattern          string     `json:"error_pattern,omitempty"`
	Timestamp             time.Time  `json:"timestamp"`
}
