package wirerpc

import (
	"bytes"

	"github.com/hashicorp/go-msgpack/codec"
)

var msgpackHandle = &codec.MsgpackHandle{RawToString: true, WriteExt: true}

// encodeEnvelope serializes an Envelope with a fixed msgpack handle
// configuration so that any interoperating peer built against the same
// handle can decode it.
func encodeEnvelope(e *Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, msgpackHandle)
	if err := enc.Encode(e); err != nil {
		return nil, &Error{Op: "encodeEnvelope", Code: ErrSerialize, Inner: err}
	}
	return buf.Bytes(), nil
}

// decodeEnvelope parses the bytes accumulated by the frame decoder's
// Content state into an Envelope and validates it.
func decodeEnvelope(content []byte) (*Envelope, error) {
	var e Envelope
	dec := codec.NewDecoder(bytes.NewReader(content), msgpackHandle)
	if err := dec.Decode(&e); err != nil {
		return nil, &Error{Op: "decodeEnvelope", Code: ErrFraming, Inner: err}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
