package tunnel

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

const downlinkBufSize = 32 * 1024

const closeGrace = 5 * time.Second

type halfCloser interface {
	CloseWrite() error
}

// relay runs the two copy directions until one finishes, then tears both
// sides down. Within a direction byte order is source order; across
// directions there is none. Uplink writes block before the next frame is
// consumed and downlink sends block before the next socket read, so neither
// side buffers more than one chunk.
//
// The returned counts are relayed bytes per direction; err is the first
// meaningful failure, nil on a graceful close from either side.
func relay(ctx context.Context, ws MessageConn, tcp net.Conn, initial []byte) (up, down int64, err error) {
	done := make(chan error, 2)

	go func() { done <- uplink(ws, tcp, initial, &up) }()
	go func() { done <- downlink(ws, tcp, &down) }()

	remaining := 2
wait:
	for remaining > 0 {
		select {
		case e := <-done:
			remaining--
			if errors.Is(e, errHalfClosed) {
				// Uplink saw a clean peer close and half-closed the
				// socket; the downlink keeps draining until the
				// destination answers with EOF.
				continue
			}
			err = e
			break wait
		case <-ctx.Done():
			err = ctx.Err()
			break wait
		}
	}

	// Close both endpoints so any still-running direction unblocks; its
	// exit error is teardown noise and dropped.
	ws.Close()
	tcp.Close()
	for ; remaining > 0; remaining-- {
		<-done
	}
	return up, down, err
}

// errHalfClosed signals a graceful uplink exit that must not tear the
// downlink down. It never escapes relay.
var errHalfClosed = errors.New("uplink half-closed")

// uplink feeds the TCP side: the handshake's trailing payload first, then
// every inbound frame in arrival order. A peer close half-closes the socket
// so the destination sees FIN while the downlink drains.
func uplink(ws MessageConn, tcp net.Conn, initial []byte, n *int64) error {
	if len(initial) > 0 {
		if _, err := tcp.Write(initial); err != nil {
			return readErr(err)
		}
		*n += int64(len(initial))
	}
	for {
		_, p, err := ws.ReadMessage()
		if err != nil {
			if errors.Is(readErr(err), ErrClosed) {
				if hc, ok := tcp.(halfCloser); ok {
					hc.CloseWrite()
				} else {
					tcp.Close()
				}
				return errHalfClosed
			}
			return readErr(err)
		}
		if len(p) == 0 {
			continue
		}
		if _, err := tcp.Write(p); err != nil {
			return readErr(err)
		}
		*n += int64(len(p))
	}
}

// downlink wraps each socket read in one binary frame, whatever size the
// socket returned. EOF from the destination becomes a clean WebSocket close.
func downlink(ws MessageConn, tcp net.Conn, n *int64) error {
	buf := make([]byte, downlinkBufSize)
	for {
		rn, err := tcp.Read(buf)
		if rn > 0 {
			if werr := ws.WriteMessage(websocket.BinaryMessage, buf[:rn]); werr != nil {
				return readErr(werr)
			}
			*n += int64(rn)
		}
		if err != nil {
			if errors.Is(readErr(err), ErrClosed) {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
				return nil
			}
			return readErr(err)
		}
	}
}
