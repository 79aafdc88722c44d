package wirerpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := &Error{Op: "Conn.Send", ConnID: "abc", Code: ErrFraming, Msg: "bad length prefix"}
	assert.True(t, errors.Is(err, &Error{Code: ErrFraming}))
	assert.False(t, errors.Is(err, &Error{Code: ErrConnect}))
}

func TestErrorUnwrapExposesInner(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Op: "Client.Connect", Code: ErrConnect, Inner: inner}
	assert.Same(t, inner, errors.Unwrap(err))
}

func TestErrorStringIncludesOpAndCode(t *testing.T) {
	err := &Error{Op: "Template.Register", Code: ErrRegistration, Msg: "collision"}
	msg := err.Error()
	assert.Contains(t, msg, "Template.Register")
	assert.Contains(t, msg, "registration")
	assert.Contains(t, msg, "collision")
}
