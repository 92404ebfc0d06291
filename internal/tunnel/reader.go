package tunnel

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// MessageConn is the discrete-message transport a session runs on. It is the
// subset of *websocket.Conn the tunnel needs, so gorilla connections satisfy
// it directly and tests can substitute scripted ones.
type MessageConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Reader adapts a MessageConn into a pull-style byte source. Inbound frames
// are appended to an internal buffer in arrival order; reads consume from the
// front. Text frames are treated as binary, payload as-is. The Reader never
// pulls more frames than needed to satisfy the current read, so bytes left
// over after a handshake parse stay buffered for Drain.
type Reader struct {
	conn MessageConn
	buf  []byte
	off  int
}

// NewReader wraps conn. The Reader owns no lifecycle; closing is the
// session's job.
func NewReader(conn MessageConn) *Reader {
	return &Reader{conn: conn}
}

// fill pulls frames until at least n unread bytes are buffered.
func (r *Reader) fill(n int) error {
	for r.len() < n {
		_, p, err := r.conn.ReadMessage()
		if err != nil {
			return readErr(err)
		}
		if r.off > 0 && r.off == len(r.buf) {
			r.buf = r.buf[:0]
			r.off = 0
		}
		r.buf = append(r.buf, p...)
	}
	return nil
}

func (r *Reader) len() int { return len(r.buf) - r.off }

// Peek ensures at least n bytes are buffered and returns the whole unread
// buffer without consuming it. Used by the dispatcher to sniff the first
// frame's signature.
func (r *Reader) Peek(n int) ([]byte, error) {
	if err := r.fill(n); err != nil {
		return nil, err
	}
	return r.buf[r.off:], nil
}

// Buffered returns the unread bytes without pulling more frames.
func (r *Reader) Buffered() []byte { return r.buf[r.off:] }

// ReadFull fills p completely or fails.
func (r *Reader) ReadFull(p []byte) error {
	if err := r.fill(len(p)); err != nil {
		return err
	}
	copy(p, r.buf[r.off:])
	r.off += len(p)
	return nil
}

// ReadN consumes and returns exactly n bytes.
func (r *Reader) ReadN(n int) ([]byte, error) {
	p := make([]byte, n)
	if err := r.ReadFull(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadByte consumes a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.fill(1); err != nil {
		return 0, err
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// Skip discards n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.fill(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

// Drain consumes and returns everything buffered so far. After a handshake
// parse this is the application payload that rode in with it.
func (r *Reader) Drain() []byte {
	if r.len() == 0 {
		return nil
	}
	p := make([]byte, r.len())
	copy(p, r.buf[r.off:])
	r.buf = r.buf[:0]
	r.off = 0
	return p
}

// readErr classifies a transport read failure: a close (clean or otherwise)
// or EOF before enough bytes arrived is Closed, anything else Transport.
func readErr(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("peer closed mid-read: %w", ErrClosed)
	}
	return fmt.Errorf("read: %v: %w", err, ErrTransport)
}
