// Package caller implements the calling half of a connection: it issues a
// REQUEST envelope, allocates a unique response-id, and parks a completion
// callback in the connection's dispatch table. The callback is registered
// before the request is sent, so a fast reply can never race past an
// unregistered slot.
package caller

import (
	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/conn"
)

// Controller carries per-call failure state: a sticky "failed" flag with a
// message, set by the framework when a response can't be parsed.
type Controller struct {
	failed    bool
	failedMsg string
}

// SetFailed marks the controller failed with msg. Idempotent: the first
// failure wins.
func (c *Controller) SetFailed(msg string) {
	if !c.failed {
		c.failed = true
		c.failedMsg = msg
	}
}

// Failed reports whether SetFailed has been called.
func (c *Controller) Failed() bool { return c.failed }

// FailedMessage returns the message passed to the first SetFailed call, or
// "" if the controller has not failed.
func (c *Controller) FailedMessage() string { return c.failedMsg }

// Call issues method as a REQUEST over c carrying reqContent, and arranges
// for done to run (on the worker tier) once a RESPONSE arrives:
// parseResponse is handed the response envelope's content and should decode
// it into the caller's response value, returning an error on parse failure
// (which sets controller.SetFailed; done runs regardless).
//
// responseTypeName seeds the response-id: Hash8(responseTypeName) is the
// first slot tried, with collisions probed linearly from there.
func Call(
	c *conn.Connection,
	controller *Controller,
	method string,
	responseTypeName string,
	reqContent []byte,
	parseResponse func(content []byte) error,
	done func(),
) {
	requestID := wirerpc.Hash8(method)
	want := wirerpc.Hash8(responseTypeName)

	handler := func(env *wirerpc.Envelope, _ wirerpc.ConnHandle) {
		if err := parseResponse(env.Content); err != nil {
			controller.SetFailed("failed to parse response for " + method + ": " + err.Error())
		}
		if done != nil {
			done()
		}
	}
	responseID := c.Table().AllocateResponseID(want, handler)

	env := &wirerpc.Envelope{
		Kind:             wirerpc.KindRequest,
		Identify:         requestID,
		ResponseIdentify: responseID,
		Content:          reqContent,
	}
	if len(reqContent) == 0 {
		// An empty request body is a caller programming error, not a wire
		// condition: fail the call locally instead of sending a frame the
		// peer's decoder is guaranteed to reject.
		c.Table().CancelResponse(responseID)
		controller.SetFailed("request content must be non-empty for method " + method)
		if done != nil {
			done()
		}
		return
	}

	c.Send(env)
	c.ScheduleWrite()
	c.ScheduleRead()
}
