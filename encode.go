package parcel

import (
	"encoding"
	"encoding/base64"
	"reflect"
	"strconv"
)

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

// encodeState walks one value into a value tree.
type encodeState struct {
	cfg *config

	// visiting holds the pointers and maps on the current path.
	visiting map[visitKey]struct{}
}

// visitKey identifies a reference. Slices also carry their length, since a
// subslice shares its parent's data pointer without forming a cycle.
type visitKey struct {
	ptr uintptr
	len int
	typ reflect.Type
}

func newVisitKey(rv reflect.Value) visitKey {
	key := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	return key
}

func newEncodeState(cfg *config) *encodeState {
	return &encodeState{cfg: cfg, visiting: make(map[visitKey]struct{})}
}

// encode converts rv, held in a slot of the static type, into a tree node.
func (e *encodeState) encode(rv reflect.Value, static reflect.Type, path string) (any, error) {
	if static.Kind() == reflect.Interface {
		return e.encodeTagged(rv, path)
	}
	return e.encodeValue(rv, path)
}

// encodeTagged handles interface slots: non-natural values are wrapped as
// [typeID, payload].
func (e *encodeState) encodeTagged(rv reflect.Value, path string) (any, error) {
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, nil
	}

	switch rv.Type() {
	case stringType:
		return rv.String(), nil
	case boolType:
		return rv.Bool(), nil
	}

	id, ok := e.cfg.types.nameOf(rv.Type())
	if !ok {
		return nil, newPathError(ErrEncoding, path, TypeID(rv.Type()), ErrUnresolvableType)
	}

	payload, err := e.encodeValue(rv, path)
	if err != nil {
		return nil, err
	}
	return []any{id, payload}, nil
}

// encodeValue converts a value of a concrete type.
func (e *encodeState) encodeValue(rv reflect.Value, path string) (any, error) {
	rt := rv.Type()

	if shape, ok := e.cfg.shapes[rt]; ok {
		node, err := shape.Encode(rv)
		if err != nil {
			return nil, newPathError(ErrEncoding, path, TypeID(rt), err)
		}
		return node, nil
	}

	if text, ok, err := marshalText(rv); ok {
		if err != nil {
			return nil, newPathError(ErrEncoding, path, TypeID(rt), err)
		}
		return text, nil
	}

	switch rt.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Pointer:
		return e.encodePointer(rv, path)
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		if rt.Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(rv.Bytes()), nil
		}
		if err := e.enter(rv, path); err != nil {
			return nil, err
		}
		defer e.leave(rv)
		return e.encodeList(rv, path)
	case reflect.Array:
		return e.encodeList(rv, path)
	case reflect.Map:
		return e.encodeMap(rv, path)
	case reflect.Struct:
		return e.encodeStruct(rv, path)
	case reflect.Interface:
		return e.encodeTagged(rv, path)
	default:
		return nil, newPathError(ErrEncoding, path, rt.String(), errUnsupportedKind(rt.Kind()))
	}
}

func (e *encodeState) encodePointer(rv reflect.Value, path string) (any, error) {
	if rv.IsNil() {
		return nil, nil
	}
	if err := e.enter(rv, path); err != nil {
		return nil, err
	}
	defer e.leave(rv)
	return e.encode(rv.Elem(), rv.Type().Elem(), path)
}

func (e *encodeState) encodeList(rv reflect.Value, path string) (any, error) {
	elem := rv.Type().Elem()
	out := make([]any, rv.Len())
	for i := range out {
		node, err := e.encode(rv.Index(i), elem, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		out[i] = node
	}
	return out, nil
}

func (e *encodeState) encodeMap(rv reflect.Value, path string) (any, error) {
	if rv.IsNil() {
		return nil, nil
	}
	if err := e.enter(rv, path); err != nil {
		return nil, err
	}
	defer e.leave(rv)

	elem := rv.Type().Elem()
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, err := encodeKey(iter.Key())
		if err != nil {
			return nil, newPathError(ErrEncoding, path, rv.Type().String(), err)
		}
		node, err := e.encode(iter.Value(), elem, fieldPath(path, key))
		if err != nil {
			return nil, err
		}
		out[key] = node
	}
	return out, nil
}

func (e *encodeState) encodeStruct(rv reflect.Value, path string) (any, error) {
	plan, err := e.cfg.plan(rv.Type())
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(plan.fields))
	for _, fp := range plan.fields {
		fv := rv.FieldByIndex(fp.index)
		if fp.omitEmpty && fv.IsZero() {
			continue
		}
		node, err := e.encode(fv, fp.typ, fieldPath(path, fp.wire))
		if err != nil {
			return nil, err
		}
		out[fp.wire] = node
	}
	return out, nil
}

// enter records a reference on the current path and fails on a cycle.
func (e *encodeState) enter(rv reflect.Value, path string) error {
	key := newVisitKey(rv)
	if key.ptr == 0 {
		return nil
	}
	if _, seen := e.visiting[key]; seen {
		return newPathError(ErrEncoding, path, rv.Type().String(), errCycle)
	}
	e.visiting[key] = struct{}{}
	return nil
}

func (e *encodeState) leave(rv reflect.Value) {
	delete(e.visiting, newVisitKey(rv))
}

// usesText reports whether values of rt travel as their text encoding.
// Both directions must be available so that decoding mirrors encoding.
func usesText(rt reflect.Type) bool {
	if rt.Kind() == reflect.Pointer || rt.Kind() == reflect.Interface {
		return false
	}
	pt := reflect.PointerTo(rt)
	return (rt.Implements(textMarshalerType) || pt.Implements(textMarshalerType)) &&
		pt.Implements(textUnmarshalerType)
}

// marshalText uses encoding.TextMarshaler when rv or its address implements it.
func marshalText(rv reflect.Value) (string, bool, error) {
	rt := rv.Type()
	if !usesText(rt) {
		return "", false, nil
	}

	var m encoding.TextMarshaler
	if rt.Implements(textMarshalerType) {
		m = rv.Interface().(encoding.TextMarshaler)
	} else {
		if !rv.CanAddr() {
			cp := reflect.New(rt)
			cp.Elem().Set(rv)
			rv = cp.Elem()
		}
		m = rv.Addr().Interface().(encoding.TextMarshaler)
	}

	text, err := m.MarshalText()
	if err != nil {
		return "", true, err
	}
	return string(text), true, nil
}

// encodeKey renders a map key as a string.
func encodeKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if text, ok, err := marshalText(k); ok {
		return text, err
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", errUnsupportedKey(k.Type())
}

func fieldPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}
