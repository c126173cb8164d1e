package parcel

import (
	"context"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
)

// config is the immutable result of Builder.Build.
// The plan cache only memoizes values derived from the other fields.
type config struct {
	codec      Codec
	resolver   Resolver
	inspectors []FieldInspector
	types      *typeTable
	shapes     map[reflect.Type]Shape

	plans sync.Map // reflect.Type -> *structPlan
}

// plan returns the cached field plan for a struct type.
func (c *config) plan(rt reflect.Type) (*structPlan, error) {
	if cached, ok := c.plans.Load(rt); ok {
		return cached.(*structPlan), nil
	}
	plan, err := buildStructPlan(rt, c.inspectors)
	if err != nil {
		return nil, err
	}
	actual, _ := c.plans.LoadOrStore(rt, plan)
	return actual.(*structPlan), nil
}

// Builder accumulates serializer options. A Builder is not safe for
// concurrent use; assemble it on one goroutine and call Build once.
type Builder struct {
	codec      Codec
	pretty     bool
	resolver   Resolver
	inspectors []FieldInspector
	modules    []Module
	names      []namedType
	err        error
}

type namedType struct {
	name string
	typ  reflect.Type
}

// ForFormat starts a Builder for the given codec and installs the
// built-in modules.
func ForFormat(c Codec) *Builder {
	b := &Builder{codec: c}
	if c == nil {
		b.err = newConfigError(ErrInvariant, "", "codec")
	}
	b.modules = append(b.modules, builtinModules()...)
	return b
}

// PrettyOutput enables indented output for codecs implementing Indenter.
// Binary codecs ignore it.
func (b *Builder) PrettyOutput() *Builder {
	b.pretty = true
	return b
}

// WithExternalValueResolver installs r for fields marked with an inject
// tag. It also places the resolver-aware field inspector in front of the
// default one.
func (b *Builder) WithExternalValueResolver(r Resolver) *Builder {
	if r == nil && b.err == nil {
		b.err = newConfigError(ErrInvariant, "", "resolver")
	}
	b.resolver = r
	return b
}

// WithFieldInspector places in in front of the built-in inspectors.
// Inspectors added later are consulted first.
func (b *Builder) WithFieldInspector(in FieldInspector) *Builder {
	if in == nil {
		if b.err == nil {
			b.err = newConfigError(ErrInvariant, "", "inspector")
		}
		return b
	}
	b.inspectors = append([]FieldInspector{in}, b.inspectors...)
	return b
}

// WithModule adds a module applied after the built-in ones.
func (b *Builder) WithModule(m Module) *Builder {
	b.modules = append(b.modules, m)
	return b
}

// Register records the dynamic type of sample under name for this
// serializer only.
func (b *Builder) Register(name string, sample any) *Builder {
	if sample == nil {
		if b.err == nil {
			b.err = newConfigError(ErrInvariant, name, "")
		}
		return b
	}
	b.names = append(b.names, namedType{name: name, typ: reflect.TypeOf(sample)})
	return b
}

// Build assembles an immutable Serializer. The Builder's state is copied,
// so later changes to the Builder or the process-wide registry do not
// affect the result.
func (b *Builder) Build() (*Serializer, error) {
	if b.err != nil {
		return nil, b.err
	}

	reg := &Registrar{
		types:  newTypeTable(),
		shapes: make(map[reflect.Type]Shape),
	}
	for _, m := range b.modules {
		if err := m.Setup(reg); err != nil {
			return nil, errors.Wrapf(err, "module %s", m.Name())
		}
	}
	if err := reg.types.merge(snapshotRegistry()); err != nil {
		return nil, err
	}
	for _, nt := range b.names {
		if err := reg.types.add(nt.name, nt.typ); err != nil {
			return nil, err
		}
	}

	codec := b.codec
	if b.pretty && codec.Format() == FormatText {
		if in, ok := codec.(Indenter); ok {
			codec = in.Indent()
		}
	}

	inspectors := append([]FieldInspector(nil), b.inspectors...)
	if b.resolver != nil {
		inspectors = append(inspectors, resolverInspector{})
	}
	inspectors = append(inspectors, defaultInspector{})

	cfg := &config{
		codec:      codec,
		resolver:   b.resolver,
		inspectors: inspectors,
		types:      reg.types,
		shapes:     reg.shapes,
	}

	emitSerializerBuilt(context.Background(), codec.ContentType(), len(reg.types.byName), b.resolver != nil)
	return &Serializer{cfg: cfg}, nil
}
