package parcel

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/zoobzio/sentinel"
)

// colorModule registers a named string type under a short identifier.
type Color string

type colorModule struct {
	fail bool
}

func (colorModule) Name() string { return "color" }

func (m colorModule) Setup(r *Registrar) error {
	if m.fail {
		return errors.New("setup refused")
	}
	return r.RegisterName("color", reflect.TypeFor[Color]())
}

func TestForFormat_NilCodec(t *testing.T) {
	_, err := ForFormat(nil).PrettyOutput().Build()
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("Build() error = %v, want ErrInvariant", err)
	}
}

func TestBuilder_NilResolver(t *testing.T) {
	_, err := ForFormat(&testCodec{}).WithExternalValueResolver(nil).Build()
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("Build() error = %v, want ErrInvariant", err)
	}
}

func TestBuilder_RegisterNilSample(t *testing.T) {
	_, err := ForFormat(&testCodec{}).Register("nothing", nil).Build()
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("Build() error = %v, want ErrInvariant", err)
	}
}

func TestBuilder_DuplicateNames(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder
	}{
		{
			"same name, different types",
			ForFormat(&testCodec{}).Register("shape", Circle{}).Register("shape", Square{}),
		},
		{
			"same type, different names",
			ForFormat(&testCodec{}).Register("round", Circle{}).Register("circle", Circle{}),
		},
		{
			"builtin type renamed",
			ForFormat(&testCodec{}).Register("number", 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Build()
			if !errors.Is(err, ErrDuplicateType) {
				t.Errorf("Build() error = %v, want ErrDuplicateType", err)
			}
		})
	}
}

func TestBuilder_SameRegistrationTwice(t *testing.T) {
	_, err := ForFormat(&testCodec{}).Register("circle", Circle{}).Register("circle", Circle{}).Build()
	if err != nil {
		t.Errorf("Build() error = %v, want nil for a repeated identical registration", err)
	}
}

func TestBuilder_WithModule(t *testing.T) {
	s, err := ForFormat(&testCodec{}).WithModule(colorModule{}).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	data, err := s.Marshal(t.Context(), Color("red"))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `{"obj":["color","red"]}` {
		t.Errorf("Marshal() = %s", data)
	}

	got, err := s.Unmarshal(t.Context(), data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got != Color("red") {
		t.Errorf("Unmarshal() = %#v, want Color(red)", got)
	}
}

func TestBuilder_ModuleFailure(t *testing.T) {
	_, err := ForFormat(&testCodec{}).WithModule(colorModule{fail: true}).Build()
	if err == nil {
		t.Fatal("Build() should fail when a module fails")
	}
}

func TestBuilder_BuildTwice(t *testing.T) {
	b := ForFormat(&testCodec{}).Register("circle", Circle{})

	first, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	b.Register("square", Square{})
	second, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if _, err := first.Marshal(t.Context(), Square{Side: 1}); !errors.Is(err, ErrEncoding) {
		t.Errorf("first serializer should not see later registrations, got %v", err)
	}
	if _, err := second.Marshal(t.Context(), Square{Side: 1}); err != nil {
		t.Errorf("second serializer Marshal() error: %v", err)
	}
}

func TestBuilder_PrettyUsesIndenter(t *testing.T) {
	s, err := ForFormat(&testCodec{}).PrettyOutput().Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	c, ok := s.cfg.codec.(*testCodec)
	if !ok || c.indent == "" {
		t.Errorf("pretty serializer should use the indented codec, got %#v", s.cfg.codec)
	}
}

func TestBuilder_ResolverInspectorFirst(t *testing.T) {
	s, err := ForFormat(&testCodec{}).WithExternalValueResolver(MapResolver{}).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if len(s.cfg.inspectors) != 2 {
		t.Fatalf("inspectors = %d, want 2", len(s.cfg.inspectors))
	}
	if _, ok := s.cfg.inspectors[0].(resolverInspector); !ok {
		t.Errorf("first inspector = %T, want resolverInspector", s.cfg.inspectors[0])
	}
}

// upperInspector renames every untagged Color field to its upper-case name.
type upperInspector struct{}

func (upperInspector) InspectField(f sentinel.FieldMetadata) (FieldInfo, bool) {
	if f.ReflectType != reflect.TypeFor[Color]() {
		return FieldInfo{}, false
	}
	return FieldInfo{Role: RoleData, Name: strings.ToUpper(f.Name)}, true
}

type palette struct {
	Primary Color
	Count   int
}

func TestBuilder_WithFieldInspector(t *testing.T) {
	s, err := ForFormat(&testCodec{}).
		WithFieldInspector(upperInspector{}).
		WithExternalValueResolver(MapResolver{}).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if len(s.cfg.inspectors) != 3 {
		t.Fatalf("inspectors = %d, want 3", len(s.cfg.inspectors))
	}
	if _, ok := s.cfg.inspectors[0].(upperInspector); !ok {
		t.Errorf("first inspector = %T, want upperInspector", s.cfg.inspectors[0])
	}

	got, err := s.WriteValueAsString(t.Context(), palette{Primary: "red", Count: 2})
	if err != nil {
		t.Fatalf("WriteValueAsString() error: %v", err)
	}
	if want := `{"Count":2,"PRIMARY":"red"}`; got != want {
		t.Errorf("WriteValueAsString() = %s, want %s", got, want)
	}

	out, err := DeserializeAs[palette](t.Context(), s, `{"PRIMARY":"blue","Count":1}`)
	if err != nil {
		t.Fatalf("DeserializeAs() error: %v", err)
	}
	if out != (palette{Primary: "blue", Count: 1}) {
		t.Errorf("DeserializeAs() = %+v", out)
	}
}

func TestBuilder_NilFieldInspector(t *testing.T) {
	_, err := ForFormat(&testCodec{}).WithFieldInspector(nil).Build()
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("Build() error = %v, want ErrInvariant", err)
	}
}
