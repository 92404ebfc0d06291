package tunnel

import (
	"context"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ReNchi-Z/inconigto-vpn/internal/geoip"
	"github.com/ReNchi-Z/inconigto-vpn/internal/logger"
	"github.com/ReNchi-Z/inconigto-vpn/internal/metrics"
)

// Settings is the immutable per-connection configuration. The gateway copies
// it out of the process config before applying URL-path relay overrides, so
// one connection's override never leaks into another.
type Settings struct {
	Identity  uuid.UUID
	Host      string
	RelayAddr string
	RelayPort uint16
}

// Session drives one upgraded connection: parse the handshake, open the
// outbound leg, write the protocol reply, relay until either side closes.
// All errors are fatal to the connection and logged exactly once; nothing
// propagates back to the HTTP layer, which already committed the upgrade.
type Session struct {
	Settings Settings
	Conn     MessageConn
	Remote   string
	Dialer   *Dialer
	Metrics  *metrics.Collector
}

// NewSession wires a session over an accepted WebSocket.
func NewSession(settings Settings, conn MessageConn, remote string, m *metrics.Collector) *Session {
	return &Session{
		Settings: settings,
		Conn:     conn,
		Remote:   remote,
		Dialer:   NewDialer(settings.RelayAddr, settings.RelayPort),
		Metrics:  m,
	}
}

// Run executes the session to completion. It is called on its own goroutine;
// cancelling ctx releases both endpoints.
func (s *Session) Run(ctx context.Context) {
	defer s.Conn.Close()

	reader := NewReader(s.Conn)
	req, err := Parse(reader, s.Settings.Identity)
	if err != nil {
		s.fail("handshake", err)
		return
	}

	dest, err := s.Dialer.Dial(ctx, req.Dest)
	if err != nil {
		s.fail(string(req.Protocol), err)
		return
	}
	defer dest.Conn.Close()

	if len(req.Reply) > 0 {
		if err := s.Conn.WriteMessage(websocket.BinaryMessage, req.Reply); err != nil {
			s.fail(string(req.Protocol), readErr(err))
			return
		}
	}

	label := req.Dest.Network()
	if geo := geoip.Annotate(req.Dest.Host); geo != "" {
		label += " (" + geo + ")"
	}
	logger.Log.Infof("[%s] %s -> %s relay=%v", req.Protocol, s.Remote, label, dest.ViaRelay)

	up, down, err := relay(ctx, s.Conn, dest.Conn, req.Payload)
	if err != nil && ctx.Err() == nil {
		s.fail(string(req.Protocol), err)
	}
	if s.Metrics != nil {
		s.Metrics.RecordSession(string(req.Protocol), up, down, dest.ViaRelay)
	}
	logger.Log.Debugf("[%s] %s done up=%d down=%d", req.Protocol, s.Remote, up, down)
}

// fail logs the error once with its short tag and counts it. The deferred
// close in Run tears the WebSocket down; silence on the wire is deliberate.
func (s *Session) fail(stage string, err error) {
	logger.Log.Warnf("[tunnel:%s] %s %s: %v", Tag(err), s.Remote, stage, err)
	if s.Metrics != nil {
		s.Metrics.RecordError(Tag(err))
	}
}
