package tunnel

import "errors"

// Connection-fatal error kinds. Every failure inside a session wraps exactly
// one of these so the orchestrator can log a single short tag and tear down.
var (
	// ErrAuth means the handshake identity did not match the configured UUID.
	ErrAuth = errors.New("auth")
	// ErrFormat means the handshake bytes were malformed or truncated.
	ErrFormat = errors.New("format")
	// ErrClosed means the peer went away before the handshake completed.
	ErrClosed = errors.New("closed")
	// ErrUnreachable means both the direct and the relay connect failed.
	ErrUnreachable = errors.New("unreachable")
	// ErrTransport is an I/O failure on an established connection.
	ErrTransport = errors.New("transport")
)

var kinds = []error{ErrAuth, ErrFormat, ErrClosed, ErrUnreachable, ErrTransport}

// Tag returns the one-word log tag for err, or "error" if it wraps none of
// the known kinds.
func Tag(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "error"
}
