package tunnel

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// scriptConn plays a fixed sequence of inbound frames and records whatever
// the gateway writes back. Once the script is drained, reads report a normal
// peer close.
type scriptConn struct {
	mu      sync.Mutex
	frames  [][]byte
	types   []int // parallel to frames; 0 means BinaryMessage
	written [][]byte
	control [][]byte
	closed  bool
}

func newScriptConn(frames ...[]byte) *scriptConn {
	return &scriptConn{frames: frames}
}

func (c *scriptConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, nil, net.ErrClosed
	}
	if len(c.frames) == 0 {
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
	p := c.frames[0]
	c.frames = c.frames[1:]
	mt := websocket.BinaryMessage
	if len(c.types) > 0 {
		if c.types[0] != 0 {
			mt = c.types[0]
		}
		c.types = c.types[1:]
	}
	return mt, p, nil
}

func (c *scriptConn) WriteMessage(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	p := make([]byte, len(data))
	copy(p, data)
	c.written = append(c.written, p)
	return nil
}

func (c *scriptConn) WriteControl(mt int, data []byte, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := make([]byte, len(data))
	copy(p, data)
	c.control = append(c.control, p)
	return nil
}

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptConn) isClosedConn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *scriptConn) sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.written))
	copy(out, c.written)
	return out
}
