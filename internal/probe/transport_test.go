package probe

import (
	"context"
	"net"
	"sync"
	"time"

	"connprobe/pkg/config"
	"connprobe/pkg/logger"
)

// dialerFunc adapts a function to the Dialer interface.
type dialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f dialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

// resolverFunc adapts a function to the Resolver interface.
type resolverFunc func(ctx context.Context, network, host string) ([]net.IP, error)

func (f resolverFunc) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	return f(ctx, network, host)
}

// scriptDialer replays a fixed sequence of outcomes, one per dial. After the
// script is exhausted the last step repeats.
type scriptDialer struct {
	mu    sync.Mutex
	steps []dialStep
	calls int
}

type dialStep struct {
	err   error
	panic bool
	delay time.Duration
}

func (d *scriptDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	step := d.steps[len(d.steps)-1]
	if d.calls < len(d.steps) {
		step = d.steps[d.calls]
	}
	d.calls++
	d.mu.Unlock()

	if step.delay > 0 {
		time.Sleep(step.delay)
	}
	if step.panic {
		panic("scripted transport fault")
	}
	if step.err != nil {
		return nil, step.err
	}
	client, _ := net.Pipe()
	return client, nil
}

func (d *scriptDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// timeoutError satisfies net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func staticResolver(ip string) resolverFunc {
	return func(ctx context.Context, network, host string) ([]net.IP, error) {
		return []net.IP{net.ParseIP(ip)}, nil
	}
}

func testProbeConfig() *config.ProbeConfig {
	return &config.ProbeConfig{
		TimeoutSeconds:      2.0,
		RetryCount:          3,
		RetryDelaySeconds:   0.001,
		Strategy:            "fixed",
		MaxConcurrentProbes: 4,
		ConnectionPoolSize:  2,
		AdaptiveTimeoutMin:  0.5,
		AdaptiveTimeoutMax:  10.0,
	}
}

func newTestEngine(cfg *config.ProbeConfig, dialer Dialer) *Engine {
	engine, err := NewEngine(cfg, logger.NewNop(), nil)
	if err != nil {
		panic(err)
	}
	engine.SetTransport(dialer, staticResolver("192.0.2.10"))
	return engine
}
