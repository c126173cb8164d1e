package parcel

import (
	"reflect"
	"strings"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register field tags with sentinel
	sentinel.Tag("parcel")
	sentinel.Tag("inject")
}

// FieldRole describes how a struct field participates in serialization.
type FieldRole int

const (
	// RoleData fields are written and read through the value tree.
	RoleData FieldRole = iota

	// RoleSkip fields are ignored entirely.
	RoleSkip

	// RoleExternal fields are never written and are filled from the
	// Resolver on decode.
	RoleExternal
)

// FieldInfo is the outcome of inspecting one struct field.
type FieldInfo struct {
	Role      FieldRole
	Name      string // wire name for RoleData
	OmitEmpty bool
	Key       string // resolver key for RoleExternal
}

// FieldInspector decides how a struct field is treated. Inspectors are
// consulted in order; the first to return true wins. Custom inspectors are
// installed with Builder.WithFieldInspector.
type FieldInspector interface {
	InspectField(f sentinel.FieldMetadata) (FieldInfo, bool)
}

// defaultInspector reads the parcel tag and flags inject markers.
type defaultInspector struct{}

func (defaultInspector) InspectField(f sentinel.FieldMetadata) (FieldInfo, bool) {
	if key, ok := f.Tags["inject"]; ok {
		return FieldInfo{Role: RoleExternal, Name: f.Name, Key: key}, true
	}

	tag, ok := f.Tags["parcel"]
	if !ok {
		return FieldInfo{Role: RoleData, Name: f.Name}, true
	}
	if tag == "-" {
		return FieldInfo{Role: RoleSkip}, true
	}

	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	info := FieldInfo{Role: RoleData, Name: name}
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			info.OmitEmpty = true
		}
	}
	return info, true
}

// resolverInspector sits in front of the default inspector once a Resolver
// is installed. An inject marker without a name resolves by the field's
// type identifier.
type resolverInspector struct{}

func (resolverInspector) InspectField(f sentinel.FieldMetadata) (FieldInfo, bool) {
	key, ok := f.Tags["inject"]
	if !ok {
		return FieldInfo{}, false
	}
	if key == "" {
		key = TypeID(f.ReflectType)
	}
	return FieldInfo{Role: RoleExternal, Name: f.Name, Key: key}, true
}

// fieldPlan describes how to read or write a single struct field.
type fieldPlan struct {
	index     []int        // reflect.Value.FieldByIndex access path
	name      string       // Go field name for error messages
	wire      string       // key in the value tree
	typ       reflect.Type // declared field type
	omitEmpty bool
	key       string // resolver key, external fields only
}

// structPlan holds the field plans for one struct type.
type structPlan struct {
	typeName string
	fields   []fieldPlan
	byWire   map[string]int
	external []fieldPlan
}

// buildStructPlan scans rt and runs every field through the inspectors.
func buildStructPlan(rt reflect.Type, inspectors []FieldInspector) (*structPlan, error) {
	meta := scanStruct(rt)
	plan := &structPlan{
		typeName: meta.TypeName,
		byWire:   make(map[string]int, len(meta.Fields)),
	}

	for _, field := range meta.Fields {
		var info FieldInfo
		for _, in := range inspectors {
			if fi, ok := in.InspectField(field); ok {
				info = fi
				break
			}
		}

		fp := fieldPlan{
			index:     field.Index,
			name:      field.Name,
			wire:      info.Name,
			typ:       field.ReflectType,
			omitEmpty: info.OmitEmpty,
			key:       info.Key,
		}

		switch info.Role {
		case RoleSkip:
			continue
		case RoleExternal:
			plan.external = append(plan.external, fp)
		default:
			if _, dup := plan.byWire[fp.wire]; dup {
				return nil, newConfigError(ErrInvalidTag, TypeID(rt), field.Name)
			}
			plan.byWire[fp.wire] = len(plan.fields)
			plan.fields = append(plan.fields, fp)
		}
	}

	return plan, nil
}

// scanStruct builds sentinel metadata for the exported fields of rt,
// reusing sentinel's cache when rt was already inspected.
func scanStruct(rt reflect.Type) sentinel.Metadata {
	if meta, ok := lookupStruct(rt); ok {
		return meta
	}

	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        parseFieldTags(sf.Tag),
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		meta.Fields = append(meta.Fields, fm)
	}

	return meta
}

// lookupStruct returns sentinel's cached metadata for rt. Sentinel drops
// empty tag values, so the parcel and inject tags are read again from the
// struct to keep bare inject markers.
func lookupStruct(rt reflect.Type) (sentinel.Metadata, bool) {
	if rt.Name() == "" {
		return sentinel.Metadata{}, false
	}
	fqdn := rt.Name()
	if pkg := rt.PkgPath(); pkg != "" {
		fqdn = pkg + "." + fqdn
	}

	cached, ok := sentinel.Lookup(fqdn)
	if !ok || cached.ReflectType != rt {
		return sentinel.Metadata{}, false
	}

	meta := cached
	meta.Fields = make([]sentinel.FieldMetadata, len(cached.Fields))
	for i, f := range cached.Fields {
		f.Tags = parseFieldTags(rt.FieldByIndex(f.Index).Tag)
		meta.Fields[i] = f
	}
	return meta, true
}

// parseFieldTags extracts the parcel and inject tags from a struct tag.
func parseFieldTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	for _, key := range []string{"parcel", "inject"} {
		if val, ok := tag.Lookup(key); ok {
			tags[key] = val
		}
	}
	return tags
}

// isExternalWire reports whether key names an externally resolved field.
// Such keys are tolerated in input and ignored.
func (p *structPlan) isExternalWire(key string) bool {
	for _, fp := range p.external {
		if fp.wire == key {
			return true
		}
	}
	return false
}
