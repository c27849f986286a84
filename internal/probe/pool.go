package probe

import (
	"errors"
	"net"
	"sync"
	"time"

	"connprobe/pkg/logger"
)

// PoolStats tracks connection pool activity for one endpoint key. Counters
// only ever grow for the lifetime of the pool.
type PoolStats struct {
	Created uint64 `json:"created"`
	Reused  uint64 `json:"reused"`
	Failed  uint64 `json:"failed"`
}

// DialFunc creates a fresh connection, blocking for at most the timeout the
// caller embedded in it.
type DialFunc func() (net.Conn, error)

// ConnectionPool caches idle connections per host:port key. Capacity is a
// soft cap: when a key's queue is full, returned connections are closed
// rather than blocking the caller.
type ConnectionPool struct {
	mu    sync.Mutex
	size  int
	idle  map[string]chan net.Conn
	stats map[string]*PoolStats
	log   *logger.Logger
}

func NewConnectionPool(size int, log *logger.Logger) *ConnectionPool {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConnectionPool{
		size:  size,
		idle:  make(map[string]chan net.Conn),
		stats: make(map[string]*PoolStats),
		log:   log.WithComponent("pool"),
	}
}

// Get returns a validated idle connection for the key, or dials a new one.
// The second return value reports whether the connection was reused. Invalid
// idle connections are closed and counted as failed; the dial error, if any,
// is returned unwrapped so the classifier can map it.
func (p *ConnectionPool) Get(host string, port uint16, dial DialFunc) (net.Conn, bool, error) {
	key := Endpoint{Host: host, Port: port}.Key()

	for {
		conn := p.dequeue(key)
		if conn == nil {
			break
		}
		if connAlive(conn) {
			p.bump(key, func(s *PoolStats) { s.Reused++ })
			p.log.Debug("reusing pooled connection", "key", key)
			return conn, true, nil
		}
		conn.Close()
		p.bump(key, func(s *PoolStats) { s.Failed++ })
		p.log.Debug("discarded stale pooled connection", "key", key)
	}

	conn, err := dial()
	if err != nil {
		return nil, false, err
	}
	p.bump(key, func(s *PoolStats) { s.Created++ })
	return conn, false, nil
}

// Return hands a connection back to the pool. Invalid connections are closed
// immediately; valid ones are enqueued unless the key's queue is already at
// capacity, in which case the connection is closed instead of blocking.
func (p *ConnectionPool) Return(host string, port uint16, conn net.Conn, isValid bool) {
	if conn == nil {
		return
	}
	if !isValid || p.size <= 0 {
		conn.Close()
		return
	}

	key := Endpoint{Host: host, Port: port}.Key()
	queue := p.queue(key)

	select {
	case queue <- conn:
	default:
		conn.Close()
	}
}

// Stats returns a snapshot of per-key pool counters.
func (p *ConnectionPool) Stats() map[string]PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]PoolStats, len(p.stats))
	for key, s := range p.stats {
		out[key] = *s
	}
	return out
}

// Totals sums the counters across all keys.
func (p *ConnectionPool) Totals() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var total PoolStats
	for _, s := range p.stats {
		total.Created += s.Created
		total.Reused += s.Reused
		total.Failed += s.Failed
	}
	return total
}

// Close drains every queue and closes all idle connections.
func (p *ConnectionPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, queue := range p.idle {
		for {
			select {
			case conn := <-queue:
				conn.Close()
			default:
				goto next
			}
		}
	next:
	}
	p.idle = make(map[string]chan net.Conn)
}

func (p *ConnectionPool) queue(key string) chan net.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	queue, ok := p.idle[key]
	if !ok {
		queue = make(chan net.Conn, p.size)
		p.idle[key] = queue
	}
	return queue
}

func (p *ConnectionPool) dequeue(key string) net.Conn {
	if p.size <= 0 {
		return nil
	}
	select {
	case conn := <-p.queue(key):
		return conn
	default:
		return nil
	}
}

func (p *ConnectionPool) bump(key string, update func(*PoolStats)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.stats[key]
	if !ok {
		s = &PoolStats{}
		p.stats[key] = s
	}
	update(s)
}

// connAlive performs a non-blocking peek read. A timeout error means no data
// was waiting and the connection is still usable. Anything else, including a
// clean read, marks the connection as unusable for pooling.
func connAlive(conn net.Conn) bool {
	if err := conn.SetReadDeadline(time.Now()); err != nil {
		return false
	}
	var buf [1]byte
	_, err := conn.Read(buf[:])
	_ = conn.SetReadDeadline(time.Time{})

	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
