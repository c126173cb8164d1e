// Package parcel provides polymorphic, type-preserving serialization.
//
// A Serializer persists a value whose static type is any and later rebuilds
// a value of the same dynamic type. It does this by wrapping the value in an
// Envelope and tagging every value stored in an interface-typed slot with the
// identifier of its dynamic type.
//
// # Basic Usage
//
//	type Shape interface{ Area() float64 }
//
//	type Circle struct {
//	    Radius float64 `parcel:"radius"`
//	}
//
//	func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }
//
//	parcel.Register[Circle]()
//
//	s, _ := parcel.ForFormat(json.New()).Build()
//
//	var buf bytes.Buffer
//	_ = s.SerializeTo(ctx, Circle{Radius: 2}, parcel.WriterSink(&buf))
//	// {"obj":["github.com/acme/geo.Circle",{"radius":2}]}
//
//	v, _ := s.DeserializeFrom(ctx, parcel.BytesSource(buf.Bytes()))
//	c := v.(Circle)
//
// # Type Tags
//
// A type tag is the two element array [typeID, payload]. Values are tagged
// only when the slot holding them is declared with an interface type; nil,
// string and bool values are never tagged. Concrete struct fields, slice
// elements and map values are written bare because the decoder knows their
// type from the enclosing value.
//
// Types must be registered before they can appear behind a tag. Predeclared
// types, common collections, time, uuid, math/big and net shapes are
// registered by the built-in modules.
//
// # Struct Tags
//
//	parcel:"name,omitempty"  - field name on the wire, omit zero values
//	parcel:"-"               - never encoded
//	inject:"name"            - resolved from the configured Resolver on decode
//
// # Codec Providers
//
// The following codec implementations are available as subpackages:
//
//   - json - JSON encoding (application/json), text
//   - yaml - YAML encoding (application/yaml), text
//   - msgpack - MessagePack encoding (application/msgpack), binary
//   - cbor - CBOR encoding (application/cbor), binary
//   - bson - BSON encoding (application/bson), binary
//   - protobuf - structpb encoding (application/x-protobuf), binary
package parcel

// Format distinguishes human-readable codecs from compact binary ones.
type Format int

const (
	// FormatText codecs produce readable output and may support indentation.
	FormatText Format = iota

	// FormatBinary codecs produce dense output and ignore pretty printing.
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Codec provides content-type aware marshaling of value trees.
//
// Marshal receives a tree built from nil, bool, string, int64, uint64,
// float64, []any and map[string]any. Unmarshal is always called with a
// pointer to an empty interface and may produce any of the shapes its
// underlying library yields for generic decoding.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Format reports whether the codec is text or binary.
	Format() Format

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Indenter is implemented by text codecs that support pretty output.
type Indenter interface {
	// Indent returns a copy of the codec that writes indented output.
	Indent() Codec
}
