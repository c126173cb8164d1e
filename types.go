package parcel

import (
	"reflect"
	"slices"

	"github.com/samber/lo"
)

// TypeID returns the default identifier written in type tags for t.
//
// Named types use their full package path ("github.com/acme/geo.Circle"),
// pointers prefix their element identifier with "*", and predeclared or
// unnamed types use reflect's spelling ("int64", "map[string]interface {}").
func TypeID(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	if t.Kind() == reflect.Pointer {
		return "*" + TypeID(t.Elem())
	}
	return t.String()
}

// typeTable maps type identifiers to types and back.
// A table owned by a built configuration is never mutated.
type typeTable struct {
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

func newTypeTable() *typeTable {
	return &typeTable{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// add records name <-> t. Re-adding an identical pair is a no-op; any
// other overlap is a conflict.
func (tt *typeTable) add(name string, t reflect.Type) error {
	if existing, ok := tt.byName[name]; ok {
		if existing == t {
			return nil
		}
		return newConfigError(ErrDuplicateType, name, "")
	}
	if existing, ok := tt.byType[t]; ok {
		return &ConfigError{Err: ErrDuplicateType, Type: TypeID(t), Field: "registered as " + existing}
	}
	tt.byName[name] = t
	tt.byType[t] = name
	return nil
}

// merge copies every entry of other into tt.
func (tt *typeTable) merge(other *typeTable) error {
	for _, name := range other.names() {
		if err := tt.add(name, other.byName[name]); err != nil {
			return err
		}
	}
	return nil
}

func (tt *typeTable) clone() *typeTable {
	c := newTypeTable()
	for name, t := range tt.byName {
		c.byName[name] = t
		c.byType[t] = name
	}
	return c
}

func (tt *typeTable) lookup(name string) (reflect.Type, bool) {
	t, ok := tt.byName[name]
	return t, ok
}

func (tt *typeTable) nameOf(t reflect.Type) (string, bool) {
	name, ok := tt.byType[t]
	return name, ok
}

// names returns the registered identifiers in sorted order.
func (tt *typeTable) names() []string {
	names := lo.Keys(tt.byName)
	slices.Sort(names)
	return names
}
