package parcel

import (
	"encoding"
	"encoding/base64"
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"
)

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// decodeState rebuilds Go values from a value tree.
type decodeState struct {
	cfg *config
}

// decode fills the settable rv from node.
func (d *decodeState) decode(node any, rv reflect.Value, path string) error {
	rt := rv.Type()

	if rt.Kind() == reflect.Interface {
		return d.decodeTagged(node, rv, path)
	}

	if shape, ok := d.cfg.shapes[rt]; ok {
		if err := shape.Decode(node, rv); err != nil {
			return newPathError(ErrTypeMismatch, path, TypeID(rt), err)
		}
		return nil
	}

	if usesText(rt) {
		return d.decodeText(node, rv, path)
	}

	switch rt.Kind() {
	case reflect.Bool:
		b, ok := node.(bool)
		if !ok {
			return mismatch(path, rt, errUnexpectedNode("bool", node))
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt64(node)
		if err != nil {
			return mismatch(path, rt, err)
		}
		if rv.OverflowInt(i) {
			return mismatch(path, rt, errors.Newf("%d overflows %s", i, rt))
		}
		rv.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := toUint64(node)
		if err != nil {
			return mismatch(path, rt, err)
		}
		if rv.OverflowUint(u) {
			return mismatch(path, rt, errors.Newf("%d overflows %s", u, rt))
		}
		rv.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(node)
		if err != nil {
			return mismatch(path, rt, err)
		}
		rv.SetFloat(f)
	case reflect.String:
		s, ok := node.(string)
		if !ok {
			return mismatch(path, rt, errUnexpectedNode("string", node))
		}
		rv.SetString(s)
	case reflect.Pointer:
		if node == nil {
			rv.SetZero()
			return nil
		}
		elem := reflect.New(rt.Elem())
		if err := d.decode(node, elem.Elem(), path); err != nil {
			return err
		}
		rv.Set(elem)
	case reflect.Slice:
		return d.decodeSlice(node, rv, path)
	case reflect.Array:
		return d.decodeArray(node, rv, path)
	case reflect.Map:
		return d.decodeMap(node, rv, path)
	case reflect.Struct:
		return d.decodeStruct(node, rv, path)
	default:
		return mismatch(path, rt, errUnsupportedKind(rt.Kind()))
	}
	return nil
}

// decodeTagged fills an interface slot from a natural value or a
// [typeID, payload] tag.
func (d *decodeState) decodeTagged(node any, rv reflect.Value, path string) error {
	rt := rv.Type()

	switch n := node.(type) {
	case nil:
		rv.SetZero()
		return nil
	case string, bool:
		v := reflect.ValueOf(n)
		if !v.Type().AssignableTo(rt) {
			return mismatch(path, rt, errors.Newf("%s does not implement %s", v.Type(), rt))
		}
		rv.Set(v)
		return nil
	}

	tag, ok := node.([]any)
	if !ok || len(tag) != 2 {
		return mismatch(path, rt, errUnexpectedNode("type tag", node))
	}
	id, ok := tag[0].(string)
	if !ok {
		return mismatch(path, rt, errUnexpectedNode("type identifier", tag[0]))
	}

	dyn, ok := d.cfg.types.lookup(id)
	if !ok {
		return newPathError(ErrUnresolvableType, path, id, nil)
	}
	if !dyn.AssignableTo(rt) {
		return mismatch(path, rt, errors.Newf("%s does not implement %s", id, rt))
	}

	v := reflect.New(dyn).Elem()
	if err := d.decode(tag[1], v, path); err != nil {
		return err
	}
	rv.Set(v)
	return nil
}

func (d *decodeState) decodeText(node any, rv reflect.Value, path string) error {
	s, ok := node.(string)
	if !ok {
		return mismatch(path, rv.Type(), errUnexpectedNode("string", node))
	}
	u := rv.Addr().Interface().(encoding.TextUnmarshaler)
	if err := u.UnmarshalText([]byte(s)); err != nil {
		return mismatch(path, rv.Type(), err)
	}
	return nil
}

func (d *decodeState) decodeSlice(node any, rv reflect.Value, path string) error {
	rt := rv.Type()
	if node == nil {
		rv.SetZero()
		return nil
	}

	if rt.Elem().Kind() == reflect.Uint8 {
		switch n := node.(type) {
		case string:
			b, err := base64.StdEncoding.DecodeString(n)
			if err != nil {
				return mismatch(path, rt, err)
			}
			rv.SetBytes(b)
			return nil
		case []byte:
			rv.SetBytes(append([]byte(nil), n...))
			return nil
		}
	}

	list, ok := node.([]any)
	if !ok {
		return mismatch(path, rt, errUnexpectedNode("array", node))
	}
	out := reflect.MakeSlice(rt, len(list), len(list))
	for i, item := range list {
		if err := d.decode(item, out.Index(i), indexPath(path, i)); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

func (d *decodeState) decodeArray(node any, rv reflect.Value, path string) error {
	list, ok := node.([]any)
	if !ok {
		return mismatch(path, rv.Type(), errUnexpectedNode("array", node))
	}
	if len(list) != rv.Len() {
		return mismatch(path, rv.Type(), errors.Newf("expected %d elements, got %d", rv.Len(), len(list)))
	}
	for i, item := range list {
		if err := d.decode(item, rv.Index(i), indexPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (d *decodeState) decodeMap(node any, rv reflect.Value, path string) error {
	rt := rv.Type()
	if node == nil {
		rv.SetZero()
		return nil
	}
	obj, ok := asObject(node)
	if !ok {
		return mismatch(path, rt, errUnexpectedNode("object", node))
	}

	out := reflect.MakeMapWithSize(rt, len(obj))
	for k, item := range obj {
		key := reflect.New(rt.Key()).Elem()
		if err := decodeKey(k, key); err != nil {
			return mismatch(path, rt, err)
		}
		val := reflect.New(rt.Elem()).Elem()
		if err := d.decode(item, val, fieldPath(path, k)); err != nil {
			return err
		}
		out.SetMapIndex(key, val)
	}
	rv.Set(out)
	return nil
}

func (d *decodeState) decodeStruct(node any, rv reflect.Value, path string) error {
	rt := rv.Type()
	obj, ok := asObject(node)
	if !ok {
		return mismatch(path, rt, errUnexpectedNode("object", node))
	}

	plan, err := d.cfg.plan(rt)
	if err != nil {
		return err
	}

	for k, item := range obj {
		i, ok := plan.byWire[k]
		if !ok {
			if plan.isExternalWire(k) {
				continue
			}
			return mismatch(fieldPath(path, k), rt, errors.Newf("unknown field %q", k))
		}
		fp := plan.fields[i]
		if err := d.decode(item, rv.FieldByIndex(fp.index), fieldPath(path, fp.wire)); err != nil {
			return err
		}
	}

	for _, fp := range plan.external {
		if err := d.inject(rv.FieldByIndex(fp.index), fp, rt, path); err != nil {
			return err
		}
	}
	return nil
}

// inject fills an externally resolved field from the configured resolver.
func (d *decodeState) inject(fv reflect.Value, fp fieldPlan, owner reflect.Type, path string) error {
	if d.cfg.resolver == nil || fp.key == "" {
		return newConfigError(ErrMissingResolver, TypeID(owner), fp.name)
	}

	val, err := d.cfg.resolver.Resolve(fp.key)
	if err != nil {
		return newPathError(ErrResolve, fieldPath(path, fp.name), fp.key, err)
	}
	if val == nil {
		fv.SetZero()
		return nil
	}

	v := reflect.ValueOf(val)
	switch {
	case v.Type().AssignableTo(fp.typ):
		fv.Set(v)
	case v.Type().ConvertibleTo(fp.typ) && convertible(v.Kind(), fp.typ.Kind()):
		fv.Set(v.Convert(fp.typ))
	default:
		return mismatch(fieldPath(path, fp.name), fp.typ, errors.Newf("resolver returned %T for %q", val, fp.key))
	}
	return nil
}

// convertible limits resolver conversions to numeric-to-numeric and
// string-to-string, avoiding surprises like int to string.
func convertible(from, to reflect.Kind) bool {
	return (isNumeric(from) && isNumeric(to)) || (from == reflect.String && to == reflect.String)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// decodeKey parses a map key written by encodeKey.
func decodeKey(s string, key reflect.Value) error {
	kt := key.Type()
	if kt.Kind() == reflect.String {
		key.SetString(s)
		return nil
	}
	if usesText(kt) {
		return key.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}
	switch kt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, kt.Bits())
		if err != nil {
			return err
		}
		key.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(s, 10, kt.Bits())
		if err != nil {
			return err
		}
		key.SetUint(u)
		return nil
	}
	return errUnsupportedKey(kt)
}

func mismatch(path string, rt reflect.Type, cause error) error {
	return newPathError(ErrTypeMismatch, path, rt.String(), cause)
}
