package parcel

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"
)

var (
	stringType = reflect.TypeFor[string]()
	boolType   = reflect.TypeFor[bool]()
)

var errCycle = errors.New("reference cycle")

func errUnsupportedKind(k reflect.Kind) error {
	return errors.Newf("unsupported kind %s", k)
}

func errUnsupportedKey(t reflect.Type) error {
	return errors.Newf("unsupported map key type %s", t)
}

func errUnexpectedNode(want string, node any) error {
	return errors.Newf("expected %s, got %s", want, describeNode(node))
}

// describeNode names the tree shape of a decoded node for error messages.
func describeNode(node any) string {
	switch node.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any, map[any]any:
		return "object"
	case json.Number:
		return "number"
	}
	switch reflect.ValueOf(node).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return fmt.Sprintf("%T", node)
}

// asObject returns node as a string-keyed map. Decoders such as YAML and
// CBOR may yield map[any]any; their keys are formatted as strings.
func asObject(node any) (map[string]any, bool) {
	switch m := node.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

// toInt64 converts any numeric node to int64, rejecting fractions and
// out of range values.
func toInt64(node any) (int64, error) {
	switch n := node.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt64(f)
	}

	rv := reflect.ValueOf(node)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, errors.Newf("%d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt64(rv.Float())
	}
	return 0, errUnexpectedNode("integer", node)
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errors.Newf("%v is not representable as an integer", f)
	}
	return int64(f), nil
}

// toUint64 converts any numeric node to uint64.
func toUint64(node any) (uint64, error) {
	switch n := node.(type) {
	case json.Number:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return floatToUint64(f)
	}

	rv := reflect.ValueOf(node)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < 0 {
			return 0, errors.Newf("%d is negative", i)
		}
		return uint64(i), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return floatToUint64(rv.Float())
	}
	return 0, errUnexpectedNode("unsigned integer", node)
}

func floatToUint64(f float64) (uint64, error) {
	if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, errors.Newf("%v is not representable as an unsigned integer", f)
	}
	return uint64(f), nil
}

// toFloat64 converts any numeric node to float64.
func toFloat64(node any) (float64, error) {
	if n, ok := node.(json.Number); ok {
		return n.Float64()
	}

	rv := reflect.ValueOf(node)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, errUnexpectedNode("number", node)
}
