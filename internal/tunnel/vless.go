package tunnel

import (
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
)

// parseVLESS consumes a VLESS request header:
//
//	version(1) | uuid(16) | addonLen(1)=L | addon(L) | instruction(1) |
//	port(2) | atyp(1) | host(...)
//
// Addon bytes are skipped. The reply header echoes the version byte.
func parseVLESS(r *Reader, identity uuid.UUID) (*Request, error) {
	head, err := r.ReadN(18)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(head[1:17], identity[:]) != 1 {
		return nil, fmt.Errorf("vless identity mismatch: %w", ErrAuth)
	}
	version := head[0]

	if err := r.Skip(int(head[17])); err != nil {
		return nil, err
	}
	if _, err := r.ReadByte(); err != nil { // instruction
		return nil, err
	}

	port, err := ReadPort(r)
	if err != nil {
		return nil, err
	}
	dest, err := vlessAddrMap.ReadHost(r)
	if err != nil {
		return nil, err
	}
	dest.Port = port

	return &Request{
		Protocol: VLESS,
		Dest:     dest,
		Payload:  r.Drain(),
		Reply:    []byte{version, 0x00},
	}, nil
}
