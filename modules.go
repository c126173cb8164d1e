package parcel

import (
	"math/big"
	"net"
	"net/netip"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Shape customizes how values of one concrete type map to the value tree.
//
// Encode receives a valid value of Type() and returns a tree node. Decode
// receives a node and a settable value of Type().
type Shape interface {
	Type() reflect.Type
	Encode(v reflect.Value) (any, error)
	Decode(node any, v reflect.Value) error
}

// Module bundles type registrations and shapes for a family of values.
// Modules are applied once, when a Builder is created or extended.
type Module interface {
	// Name identifies the module in diagnostics.
	Name() string

	// Setup registers the module's types and shapes.
	Setup(r *Registrar) error
}

// Registrar collects the registrations of a Module.
type Registrar struct {
	types  *typeTable
	shapes map[reflect.Type]Shape
}

// RegisterType records t under its default identifier.
func (r *Registrar) RegisterType(t reflect.Type) error {
	return r.types.add(TypeID(t), t)
}

// RegisterName records t under name.
func (r *Registrar) RegisterName(name string, t reflect.Type) error {
	return r.types.add(name, t)
}

// AddShape installs s, replacing any previous shape for the same type.
func (r *Registrar) AddShape(s Shape) {
	r.shapes[s.Type()] = s
}

// registerAll records every type and its pointer type.
func (r *Registrar) registerAll(samples ...any) error {
	for _, s := range samples {
		t := reflect.TypeOf(s)
		if err := r.RegisterType(t); err != nil {
			return err
		}
		if t.Kind() != reflect.Pointer {
			if err := r.RegisterType(reflect.PointerTo(t)); err != nil {
				return err
			}
		}
	}
	return nil
}

// builtinModules are installed by ForFormat.
func builtinModules() []Module {
	return []Module{
		coreModule{},
		timeModule{},
		uuidModule{},
		bigModule{},
		netModule{},
	}
}

// coreModule registers predeclared types and the generic collections
// produced by decoding untyped documents.
type coreModule struct{}

func (coreModule) Name() string { return "core" }

func (coreModule) Setup(r *Registrar) error {
	return r.registerAll(
		false, "",
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0), uintptr(0),
		float32(0), float64(0),
		[]any(nil), map[string]any(nil),
		[]string(nil), []int(nil), []int64(nil), []float64(nil), []bool(nil), []byte(nil),
		map[string]string(nil), map[string]int(nil), map[string]int64(nil),
		map[string]float64(nil), map[string]bool(nil),
	)
}

// timeModule covers the time package. time.Time travels through its text
// encoding; Duration gets a readable shape.
type timeModule struct{}

func (timeModule) Name() string { return "time" }

func (timeModule) Setup(r *Registrar) error {
	if err := r.registerAll(time.Time{}, time.Duration(0), time.Month(0), time.Weekday(0)); err != nil {
		return err
	}
	r.AddShape(durationShape{})
	return nil
}

type durationShape struct{}

func (durationShape) Type() reflect.Type { return reflect.TypeFor[time.Duration]() }

func (durationShape) Encode(v reflect.Value) (any, error) {
	return time.Duration(v.Int()).String(), nil
}

func (durationShape) Decode(node any, v reflect.Value) error {
	s, ok := node.(string)
	if !ok {
		// Plain integers are nanoseconds.
		n, err := toInt64(node)
		if err != nil {
			return err
		}
		v.SetInt(n)
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	v.SetInt(int64(d))
	return nil
}

type uuidModule struct{}

func (uuidModule) Name() string { return "uuid" }

func (uuidModule) Setup(r *Registrar) error {
	return r.registerAll(uuid.UUID{})
}

type bigModule struct{}

func (bigModule) Name() string { return "big" }

func (bigModule) Setup(r *Registrar) error {
	return r.registerAll(big.Int{}, big.Float{}, big.Rat{})
}

type netModule struct{}

func (netModule) Name() string { return "net" }

func (netModule) Setup(r *Registrar) error {
	return r.registerAll(net.IP(nil), netip.Addr{}, netip.Prefix{}, netip.AddrPort{})
}
