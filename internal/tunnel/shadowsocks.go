package tunnel

// parseShadowsocks consumes a Shadowsocks request header:
//
//	atyp(1) | host(...) | port(2)
//
// There is no identity field; authentication is assumed to happen in the
// outer wrapper layer. The atyp numbering matches VMess.
func parseShadowsocks(r *Reader) (*Request, error) {
	dest, err := vmessAddrMap.ReadHost(r)
	if err != nil {
		return nil, err
	}
	dest.Port, err = ReadPort(r)
	if err != nil {
		return nil, err
	}

	return &Request{
		Protocol: Shadowsocks,
		Dest:     dest,
		Payload:  r.Drain(),
	}, nil
}
