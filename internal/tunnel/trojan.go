package tunnel

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// trojanKey derives the 56-char hex key a Trojan client presents: the
// SHA-224 digest of the canonical UUID string, which is what the published
// share links hand clients as the password.
func trojanKey(identity uuid.UUID) []byte {
	sum := sha256.Sum224([]byte(identity.String()))
	key := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(key, sum[:])
	return key
}

// parseTrojan consumes a Trojan request header:
//
//	key(56 hex) | CRLF | instruction(1) | atyp(1) | host(...) | port(2) | CRLF
//
// No reply header is written for Trojan.
func parseTrojan(r *Reader, identity uuid.UUID) (*Request, error) {
	key, err := r.ReadN(56)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(key, trojanKey(identity)) != 1 {
		return nil, fmt.Errorf("trojan key mismatch: %w", ErrAuth)
	}
	if err := expectCRLF(r); err != nil {
		return nil, err
	}
	if _, err := r.ReadByte(); err != nil { // instruction
		return nil, err
	}

	dest, err := trojanAddrMap.ReadHost(r)
	if err != nil {
		return nil, err
	}
	dest.Port, err = ReadPort(r)
	if err != nil {
		return nil, err
	}
	if err := expectCRLF(r); err != nil {
		return nil, err
	}

	return &Request{
		Protocol: Trojan,
		Dest:     dest,
		Payload:  r.Drain(),
	}, nil
}

func expectCRLF(r *Reader) error {
	b, err := r.ReadN(2)
	if err != nil {
		return err
	}
	if b[0] != '\r' || b[1] != '\n' {
		return fmt.Errorf("missing CRLF: %w", ErrFormat)
	}
	return nil
}
