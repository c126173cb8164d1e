// Package bson provides a BSON codec implementation.
package bson

import (
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zoobzio/parcel"
)

// bsonCodec implements parcel.Codec for BSON.
//
// BSON documents are ordered, so maps are written as bson.D with sorted
// keys. BSON has no unsigned integers; uint64 values above MaxInt64 fail
// to encode. Untyped decoding yields plain maps, slices and int64 values rather
// than the driver's primitive types.
type bsonCodec struct{}

// New returns a BSON codec.
func New() parcel.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Format reports BSON as a binary format.
func (c *bsonCodec) Format() parcel.Format {
	return parcel.FormatBinary
}

// Marshal encodes v as BSON. The root must be a document.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, errNotDocument
	}
	if m, ok := v.(map[string]any); ok {
		return bson.Marshal(toBSON(m))
	}
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v. Untyped targets receive a plain
// value tree.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	p, ok := v.(*any)
	if !ok {
		return bson.Unmarshal(data, v)
	}

	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	*p = fromBSON(doc)
	return nil
}

// toBSON rewrites maps to sorted documents and slices to arrays.
func toBSON(v any) any {
	switch n := v.(type) {
	case map[string]any:
		if n == nil {
			return nil
		}
		keys := lo.Keys(n)
		slices.Sort(keys)
		doc := make(bson.D, 0, len(keys))
		for _, k := range keys {
			doc = append(doc, bson.E{Key: k, Value: toBSON(n[k])})
		}
		return doc
	case []any:
		if n == nil {
			return nil
		}
		arr := make(bson.A, len(n))
		for i, item := range n {
			arr[i] = toBSON(item)
		}
		return arr
	}
	return v
}

// fromBSON turns driver types into the plain value tree.
func fromBSON(v any) any {
	switch n := v.(type) {
	case primitive.D:
		out := make(map[string]any, len(n))
		for _, e := range n {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(n))
		for k, item := range n {
			out[k] = fromBSON(item)
		}
		return out
	case primitive.A:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = fromBSON(item)
		}
		return out
	case int32:
		return int64(n)
	case primitive.Binary:
		return n.Data
	case primitive.DateTime:
		return n.Time().UTC().Format(time.RFC3339Nano)
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}

var errNotDocument = errors.New("bson root must be a document")
