// Package protobuf provides a codec that carries value trees as
// google.protobuf.Value messages.
//
// The well-known Value type stores every number as a double, so integers
// beyond 2^53 lose precision.
package protobuf

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoobzio/parcel"
)

var marshalOptions = proto.MarshalOptions{Deterministic: true}

// protobufCodec implements parcel.Codec for protobuf.
type protobufCodec struct{}

// New returns a protobuf codec.
func New() parcel.Codec {
	return &protobufCodec{}
}

// ContentType returns the MIME type for protobuf.
func (c *protobufCodec) ContentType() string {
	return "application/x-protobuf"
}

// Format reports protobuf as a binary format.
func (c *protobufCodec) Format() parcel.Format {
	return parcel.FormatBinary
}

// Marshal encodes v as a google.protobuf.Value. Messages are encoded
// directly.
func (c *protobufCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return marshalOptions.Marshal(m)
	}
	val, err := structpb.NewValue(v)
	if err != nil {
		return nil, err
	}
	return marshalOptions.Marshal(val)
}

// Unmarshal decodes data into v, which must be *any or a proto.Message.
func (c *protobufCodec) Unmarshal(data []byte, v any) error {
	switch target := v.(type) {
	case *any:
		var val structpb.Value
		if err := proto.Unmarshal(data, &val); err != nil {
			return err
		}
		if val.GetKind() == nil {
			return errors.New("protobuf value has no kind")
		}
		*target = val.AsInterface()
		return nil
	case proto.Message:
		return proto.Unmarshal(data, target)
	}
	return errors.Newf("unsupported unmarshal target %T", v)
}
