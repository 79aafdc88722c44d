package client

import (
	"context"
	"net"
	"net/netip"
	"strconv"

	"github.com/boxcast/wirerpc"
)

// resolveEndpoints resolves host to its candidate addresses and pairs each
// with port, preserving resolver order. Producing the ordered
// netip.AddrPort list ahead of dialing, rather than letting the dialer
// resolve internally, is what lets Connect report which endpoint failed.
func resolveEndpoints(ctx context.Context, host, port string) ([]netip.AddrPort, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		p, perr := parsePort(port)
		if perr != nil {
			return nil, perr
		}
		return []netip.AddrPort{netip.AddrPortFrom(addr, p)}, nil
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, &wirerpc.Error{Op: "resolveEndpoints", Code: wirerpc.ErrConnect, Msg: "resolve " + host, Inner: err}
	}
	p, perr := parsePort(port)
	if perr != nil {
		return nil, perr
	}
	out := make([]netip.AddrPort, 0, len(ips))
	for _, ip := range ips {
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			continue
		}
		out = append(out, netip.AddrPortFrom(addr.Unmap(), p))
	}
	if len(out) == 0 {
		return nil, &wirerpc.Error{Op: "resolveEndpoints", Code: wirerpc.ErrConnect, Msg: "no addresses for " + host}
	}
	return out, nil
}

func parsePort(port string) (uint16, error) {
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return 0, &wirerpc.Error{Op: "resolveEndpoints", Code: wirerpc.ErrConnect, Msg: "invalid port " + port, Inner: err}
	}
	return uint16(n), nil
}
