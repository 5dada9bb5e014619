package connectivity

import (
	"net"
	"time"
)

// DefaultProbeAddr is the network-dependent dependency group's front
// door: if the LLM API host is reachable, the live tools are too.
const DefaultProbeAddr = "api.groq.com:443"

// DefaultProbeTimeout bounds the reachability check. Timeouts and
// socket errors both count as offline.
const DefaultProbeTimeout = 2 * time.Second

// Prober performs bounded-time reachability checks against the
// network-dependent services.
type Prober struct {
	addr    string
	timeout time.Duration
	dial    func(network, addr string, timeout time.Duration) (net.Conn, error)
}

// NewProber creates a prober for the default dependency group.
func NewProber() *Prober {
	return &Prober{
		addr:    DefaultProbeAddr,
		timeout: DefaultProbeTimeout,
		dial:    net.DialTimeout,
	}
}

// NewProberForAddr creates a prober against a specific address.
func NewProberForAddr(addr string, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{addr: addr, timeout: timeout, dial: net.DialTimeout}
}

// IsOnline reports whether the network-dependent services are
// reachable. It never blocks longer than the probe timeout and has no
// side effects beyond the connection attempt.
func (p *Prober) IsOnline() bool {
	conn, err := p.dial("tcp", p.addr, p.timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
