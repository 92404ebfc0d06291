package tunnel

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/net/proxy"
)

// DialFunc opens an outbound TCP connection. The default honors ALL_PROXY /
// NO_PROXY, so a gateway whose host blocks direct egress can route through a
// SOCKS hop without code changes.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Dialer opens the outbound leg of a session: the parsed destination first,
// then the configured relay exactly once if the direct connect fails. No
// retries beyond that, no timeout beyond the dialer's own.
type Dialer struct {
	RelayAddr string
	RelayPort uint16

	// dial is swappable for tests; nil means proxy.Dial.
	dial DialFunc
}

// NewDialer builds a Dialer with the given relay fallback.
func NewDialer(relayAddr string, relayPort uint16) *Dialer {
	return &Dialer{RelayAddr: relayAddr, RelayPort: relayPort, dial: proxy.Dial}
}

// Outbound is an established outbound leg.
type Outbound struct {
	Conn net.Conn
	// ViaRelay is true when the direct connect failed and the relay leg
	// carried the connection instead.
	ViaRelay bool
}

// Dial connects to dest, falling back to the relay exactly once. Both legs
// failing yields Unreachable.
func (d *Dialer) Dial(ctx context.Context, dest Addr) (*Outbound, error) {
	dial := d.dial
	if dial == nil {
		dial = proxy.Dial
	}

	conn, direct := dial(ctx, "tcp", dest.Network())
	if direct == nil {
		return &Outbound{Conn: conn}, nil
	}

	relay := net.JoinHostPort(d.RelayAddr, strconv.Itoa(int(d.RelayPort)))
	conn, err := dial(ctx, "tcp", relay)
	if err != nil {
		return nil, fmt.Errorf("direct %s (%v) and relay %s (%v): %w",
			dest.Network(), direct, relay, err, ErrUnreachable)
	}
	return &Outbound{Conn: conn, ViaRelay: true}, nil
}
