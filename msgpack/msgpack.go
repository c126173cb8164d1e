// Package msgpack provides a MessagePack codec implementation.
package msgpack

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zoobzio/parcel"
)

// msgpackCodec implements parcel.Codec for MessagePack.
// Map keys are written in sorted order so equal trees encode identically.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() parcel.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Format reports MessagePack as a binary format.
func (c *msgpackCodec) Format() parcel.Format {
	return parcel.FormatBinary
}

// Marshal encodes v as MessagePack.
func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes MessagePack data into v. The input must hold exactly
// one value.
func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if r.Len() > 0 {
		return errors.Newf("%d bytes of trailing data", r.Len())
	}
	return nil
}
