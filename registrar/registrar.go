// Package registrar binds a service's methods to a connection template's
// request-handler table by hashing each method's full name into a method
// id. The message schema stays opaque: a method handler consumes request
// content bytes and produces response content bytes.
package registrar

import (
	"context"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/conn"
)

// MethodDesc describes one RPC method: its name (combined with the owning
// ServiceDesc's Name to form the full method name hashed into a method id)
// and the handler that runs the user's business logic against the decoded
// request content, returning serialized response content.
type MethodDesc struct {
	Name string
	// Handle runs the user's business logic against the decoded request
	// content. It receives the originating connection handle, not just the
	// bare bytes, so a handler can inspect or act on the connection it was
	// called over.
	Handle func(ctx context.Context, reqContent []byte, c wirerpc.ConnHandle) (respContent []byte, err error)
}

// ServiceDesc groups a set of methods under one fully-qualified service
// name.
type ServiceDesc struct {
	Name    string
	Methods []MethodDesc
}

// FullMethodName returns the dotted name hashed into a method id.
func FullMethodName(service, method string) string {
	return service + "." + method
}

// Register binds every method of desc into tmpl's request-handler table.
// Returns (true, nil) iff every method registered without a method-id
// collision; a collision or an already-connected template stops
// registration at the first failing method.
func Register(tmpl *conn.Template, desc ServiceDesc) (bool, error) {
	for _, m := range desc.Methods {
		fullName := FullMethodName(desc.Name, m.Name)
		methodID := wirerpc.Hash8(fullName)
		handler := makeRequestHandler(fullName, m)
		if err := tmpl.Register(methodID, fullName, handler); err != nil {
			return false, err
		}
	}
	return true, nil
}

// makeRequestHandler builds the capability installed into request_handlers:
// it runs the user's method handler against the decoded request content
// and, via a completion, sends a RESPONSE envelope echoing the caller's
// response_identify.
func makeRequestHandler(fullName string, m MethodDesc) wirerpc.Handler {
	return func(env *wirerpc.Envelope, c wirerpc.ConnHandle) {
		respContent, err := m.Handle(context.Background(), env.Content, c)
		if err != nil {
			// A failing handler still gets its reply sent with whatever
			// content it produced; users are expected to validate before
			// submitting. Only the error is logged.
			logHandlerError(fullName, err)
		}
		c.Send(&wirerpc.Envelope{
			Kind:             wirerpc.KindResponse,
			Identify:         env.ResponseIdentify,
			ResponseIdentify: 0,
			Content:          respContent,
		})
	}
}

// logHandlerError falls back to the package-level Default logger: the
// handler capability only has a wirerpc.ConnHandle, which intentionally
// does not expose the connection's own logger.
func logHandlerError(fullName string, err error) {
	wirerpc.Default().Warnf("registrar: handler for %s failed: %v", fullName, err)
}
