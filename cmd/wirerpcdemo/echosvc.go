package main

import (
	"context"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/registrar"
)

const (
	echoServiceName  = "wirerpcdemo.Echo"
	echoMethodName   = "Echo"
	echoResponseName = "wirerpcdemo.Echo.EchoResponse"
)

// echoServiceDesc is the one demo service: it uppercases whatever content it
// is sent, so a "call" invocation has visibly different output from its
// input.
func echoServiceDesc() registrar.ServiceDesc {
	return registrar.ServiceDesc{
		Name: echoServiceName,
		Methods: []registrar.MethodDesc{
			{
				Name: echoMethodName,
				Handle: func(ctx context.Context, req []byte, c wirerpc.ConnHandle) ([]byte, error) {
					out := make([]byte, len(req))
					for i, b := range req {
						if b >= 'a' && b <= 'z' {
							b -= 'a' - 'A'
						}
						out[i] = b
					}
					return out, nil
				},
			},
		},
	}
}
