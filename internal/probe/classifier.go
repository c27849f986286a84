package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// Dialer abstracts connection establishment so tests can substitute a
// deterministic transport. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Resolver abstracts address resolution. *net.Resolver satisfies it.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Outcome is the classified result of a single connection attempt.
type Outcome struct {
	Kind         ResultKind
	ErrorMessage string
	ResolvedIP   string
}

// Classifier executes one connection attempt through the pool and maps the
// native error, if any, onto the closed result taxonomy.
type Classifier struct {
	dialer   Dialer
	resolver Resolver
	pool     *ConnectionPool
}

func NewClassifier(dialer Dialer, resolver Resolver, pool *ConnectionPool) *Classifier {
	return &Classifier{dialer: dialer, resolver: resolver, pool: pool}
}

// Attempt resolves the endpoint (honoring the requested IP version), reuses
// a pooled connection when one is available, and dials otherwise. On success
// the live connection is returned alongside the outcome so the caller can
// hand it back to the pool; on any failure the connection is nil and nothing
// is pooled. The reused flag reports whether the pool served an idle
// connection.
func (c *Classifier) Attempt(ctx context.Context, ep Endpoint, timeout time.Duration) (net.Conn, bool, Outcome) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resolvedIP string

	conn, reused, err := c.pool.Get(ep.Host, ep.Port, func() (net.Conn, error) {
		ip, err := c.resolve(ctx, ep)
		if err != nil {
			return nil, err
		}
		resolvedIP = ip.String()
		return c.dialer.DialContext(ctx, "tcp", net.JoinHostPort(resolvedIP, fmt.Sprintf("%d", ep.Port)))
	})
	if err != nil {
		return nil, false, classifyError(err)
	}

	if reused {
		// A pooled connection was already validated by the pool; its peer
		// address stands in for resolution.
		if host, _, splitErr := net.SplitHostPort(conn.RemoteAddr().String()); splitErr == nil {
			resolvedIP = host
		}
	}

	return conn, reused, Outcome{Kind: ResultSuccess, ResolvedIP: resolvedIP}
}

func (c *Classifier) resolve(ctx context.Context, ep Endpoint) (net.IP, error) {
	// Literal IPs skip the resolver entirely, but still respect the
	// requested address family.
	if ip := net.ParseIP(ep.Host); ip != nil {
		if ep.IPVersion == IPv4 && ip.To4() == nil {
			return nil, &net.DNSError{Err: "address family mismatch", Name: ep.Host}
		}
		if ep.IPVersion == IPv6 && ip.To4() != nil {
			return nil, &net.DNSError{Err: "address family mismatch", Name: ep.Host}
		}
		return ip, nil
	}

	ips, err := c.resolver.LookupIP(ctx, ep.IPVersion.Network(), ep.Host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.DNSError{Err: "no addresses found", Name: ep.Host}
	}
	return ips[0], nil
}

// classifyError maps a native dial or resolution error onto the taxonomy.
// Resolution failures win over everything else so that a DNS timeout is
// reported as dns_failed, not timeout.
func classifyError(err error) Outcome {
	out := Outcome{ErrorMessage: err.Error()}

	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr):
		out.Kind = ResultDNSFailed
	case isTimeout(err):
		out.Kind = ResultTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		out.Kind = ResultConnectionRefused
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		out.Kind = ResultNetworkUnreachable
	default:
		out.Kind = ResultUnknownError
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
