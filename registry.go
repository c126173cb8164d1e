package parcel

import (
	"reflect"
	"sync"
)

var (
	registry   = newTypeTable()
	registryMu sync.RWMutex
)

// Register records T and *T in the process-wide type registry under their
// default identifiers. Serializers built afterwards can decode tags naming
// either type.
//
// Register panics on conflicting registrations, like encoding/gob.
func Register[T any]() {
	t := reflect.TypeFor[T]()
	if err := registerType(TypeID(t), t); err != nil {
		panic(err)
	}
	if t.Kind() != reflect.Pointer {
		pt := reflect.PointerTo(t)
		if err := registerType(TypeID(pt), pt); err != nil {
			panic(err)
		}
	}
}

// RegisterName records the dynamic type of sample under name.
// It returns a *ConfigError wrapping ErrDuplicateType on conflict.
func RegisterName(name string, sample any) error {
	if sample == nil {
		return newConfigError(ErrInvariant, name, "")
	}
	return registerType(name, reflect.TypeOf(sample))
}

func registerType(name string, t reflect.Type) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry.add(name, t)
}

// snapshotRegistry returns a copy of the process-wide registry.
func snapshotRegistry() *typeTable {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry.clone()
}

// RegisteredTypes returns the identifiers in the process-wide registry.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry.names()
}

// ResetTypes clears the process-wide type registry.
// This is primarily useful for test isolation.
func ResetTypes() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = newTypeTable()
}
