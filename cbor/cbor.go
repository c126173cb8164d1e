// Package cbor provides a CBOR codec implementation.
package cbor

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/zoobzio/parcel"
)

var (
	// encMode follows the core deterministic encoding rules of RFC 8949.
	encMode = mustEncMode(cbor.CoreDetEncOptions())

	// decMode yields string-keyed maps for untyped targets.
	decMode = mustDecMode(cbor.DecOptions{
		DefaultMapType: reflect.TypeFor[map[string]any](),
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// cborCodec implements parcel.Codec for CBOR.
type cborCodec struct{}

// New returns a CBOR codec.
func New() parcel.Codec {
	return &cborCodec{}
}

// ContentType returns the MIME type for CBOR.
func (c *cborCodec) ContentType() string {
	return "application/cbor"
}

// Format reports CBOR as a binary format.
func (c *cborCodec) Format() parcel.Format {
	return parcel.FormatBinary
}

// Marshal encodes v as CBOR.
func (c *cborCodec) Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func (c *cborCodec) Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
