package parcel

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// envelopeKey is the single field of an encoded Envelope.
const envelopeKey = "obj"

// Envelope holds exactly one value so that the root of every document has
// a fixed concrete type while the value itself sits in an interface slot,
// where it receives a type tag.
type Envelope struct {
	Obj any `parcel:"obj"`
}

var envelopeType = reflect.TypeFor[Envelope]()

// Wrap places v in an Envelope. It fails with ErrInvariant when v is nil
// or a nil pointer.
func Wrap(v any) (Envelope, error) {
	if v == nil {
		return Envelope{}, errors.Wrap(ErrInvariant, "cannot wrap a nil value")
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Envelope{}, errors.Wrapf(ErrInvariant, "cannot wrap a nil %s", rv.Type())
	}
	return Envelope{Obj: v}, nil
}

// Unwrap returns the held value.
func (e Envelope) Unwrap() any {
	return e.Obj
}

// encodeEnvelope builds the value tree for env.
func encodeEnvelope(cfg *config, env Envelope) (any, error) {
	return newEncodeState(cfg).encode(reflect.ValueOf(env), envelopeType, "")
}

// decodeEnvelope validates the document shape and rebuilds the Envelope.
func decodeEnvelope(cfg *config, node any) (Envelope, error) {
	obj, ok := asObject(node)
	if !ok {
		return Envelope{}, newPathError(ErrMalformedEnvelope, "", "", errUnexpectedNode("object", node))
	}
	if len(obj) != 1 {
		return Envelope{}, newPathError(ErrMalformedEnvelope, "", "", errors.Newf("expected 1 field, got %d", len(obj)))
	}
	inner, ok := obj[envelopeKey]
	if !ok {
		return Envelope{}, newPathError(ErrMalformedEnvelope, "", "", errors.Newf("missing %q field", envelopeKey))
	}
	if inner == nil {
		return Envelope{}, newPathError(ErrMalformedEnvelope, envelopeKey, "", errors.New("null value"))
	}

	var env Envelope
	d := &decodeState{cfg: cfg}
	if err := d.decode(inner, reflect.ValueOf(&env.Obj).Elem(), envelopeKey); err != nil {
		return Envelope{}, err
	}
	if rv := reflect.ValueOf(env.Obj); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Envelope{}, newPathError(ErrMalformedEnvelope, envelopeKey, TypeID(rv.Type()), errors.New("nil pointer"))
	}
	return env, nil
}
