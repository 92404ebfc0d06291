package tunnel

import (
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
)

// parseVMess consumes a VMess request header:
//
//	version(1) | uuid(16) | addonLen(1)=L | auth(1) | option(1) |
//	padlenSec(1) | reserved(1) | instruction(1) | port(2) | atyp(1) |
//	host(...) | addon(L)
//
// The auth byte is echoed back in the reply header once the outbound connect
// succeeds. The addon trailer is skipped unread.
func parseVMess(r *Reader, identity uuid.UUID) (*Request, error) {
	head, err := r.ReadN(18)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(head[1:17], identity[:]) != 1 {
		return nil, fmt.Errorf("vmess identity mismatch: %w", ErrAuth)
	}
	addonLen := int(head[17])

	// auth, option, padlenSec, reserved, instruction
	meta, err := r.ReadN(5)
	if err != nil {
		return nil, err
	}
	auth := meta[0]

	port, err := ReadPort(r)
	if err != nil {
		return nil, err
	}
	dest, err := vmessAddrMap.ReadHost(r)
	if err != nil {
		return nil, err
	}
	dest.Port = port

	if err := r.Skip(addonLen); err != nil {
		return nil, err
	}

	return &Request{
		Protocol: VMess,
		Dest:     dest,
		Payload:  r.Drain(),
		Reply:    []byte{auth, 0x00},
	}, nil
}
