package tunnel

import (
	"bytes"

	"github.com/google/uuid"
)

// Parse sniffs the first frame's signature, runs the matching header parser
// and returns the parsed request. The signatures cannot collide: a Trojan
// key is 56 hex characters plus CRLF, VMess/VLESS carry the configured
// identity at bytes 1..17 (version byte 0x00 for VLESS), any other frame
// starting with 0x00 goes to VLESS as well (and fails authentication there),
// and everything else falls through to Shadowsocks.
func Parse(r *Reader, identity uuid.UUID) (*Request, error) {
	head, err := r.Peek(1)
	if err != nil {
		return nil, err
	}
	switch sniff(head, identity) {
	case Trojan:
		return parseTrojan(r, identity)
	case VLESS:
		return parseVLESS(r, identity)
	case VMess:
		return parseVMess(r, identity)
	default:
		return parseShadowsocks(r)
	}
}

func sniff(head []byte, identity uuid.UUID) Protocol {
	if len(head) >= 58 && isHex(head[:56]) && head[56] == '\r' && head[57] == '\n' {
		return Trojan
	}
	if len(head) >= 17 && bytes.Equal(head[1:17], identity[:]) {
		if head[0] == 0x00 {
			return VLESS
		}
		return VMess
	}
	// A Shadowsocks atyp is never zero, so a zero version byte can only be a
	// VLESS attempt; routing it there turns an identity mismatch into a
	// proper auth failure instead of a format one.
	if len(head) > 0 && head[0] == 0x00 {
		return VLESS
	}
	return Shadowsocks
}

func isHex(p []byte) bool {
	for _, c := range p {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
