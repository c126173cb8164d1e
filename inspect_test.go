package parcel

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zoobzio/sentinel"
)

type tagged struct {
	Plain    string
	Renamed  string `parcel:"renamed"`
	Optional int    `parcel:"opt,omitempty"`
	Skipped  string `parcel:"-"`
	Bare     string `parcel:",omitempty"`
	Injected string `inject:"token"`
	ByType   int    `inject:""`
	hidden   string
}

type clash struct {
	A int `parcel:"x"`
	B int `parcel:"x"`
}

func TestDefaultInspector(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want FieldInfo
	}{
		{"no tag", map[string]string{}, FieldInfo{Role: RoleData, Name: "Field"}},
		{"renamed", map[string]string{"parcel": "wire"}, FieldInfo{Role: RoleData, Name: "wire"}},
		{"omitempty", map[string]string{"parcel": "wire,omitempty"}, FieldInfo{Role: RoleData, Name: "wire", OmitEmpty: true}},
		{"default name with option", map[string]string{"parcel": ",omitempty"}, FieldInfo{Role: RoleData, Name: "Field", OmitEmpty: true}},
		{"skip", map[string]string{"parcel": "-"}, FieldInfo{Role: RoleSkip}},
		{"inject", map[string]string{"inject": "key"}, FieldInfo{Role: RoleExternal, Name: "Field", Key: "key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := defaultInspector{}.InspectField(sentinel.FieldMetadata{Name: "Field", Tags: tt.tags})
			if !ok {
				t.Fatal("defaultInspector should always decide")
			}
			if got != tt.want {
				t.Errorf("InspectField() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolverInspector(t *testing.T) {
	if _, ok := (resolverInspector{}).InspectField(sentinel.FieldMetadata{Name: "F", Tags: map[string]string{}}); ok {
		t.Error("resolverInspector should defer on untagged fields")
	}

	got, ok := resolverInspector{}.InspectField(sentinel.FieldMetadata{
		Name:        "F",
		ReflectType: reflect.TypeFor[int](),
		Tags:        map[string]string{"inject": ""},
	})
	if !ok {
		t.Fatal("resolverInspector should decide on inject fields")
	}
	if got.Key != "int" || got.Role != RoleExternal {
		t.Errorf("InspectField() = %+v, want external field keyed by type", got)
	}
}

func TestBuildStructPlan(t *testing.T) {
	plan, err := buildStructPlan(reflect.TypeFor[tagged](), []FieldInspector{resolverInspector{}, defaultInspector{}})
	if err != nil {
		t.Fatalf("buildStructPlan() error: %v", err)
	}

	var wires []string
	for _, fp := range plan.fields {
		wires = append(wires, fp.wire)
	}
	want := []string{"Plain", "renamed", "opt", "Bare"}
	if !reflect.DeepEqual(wires, want) {
		t.Errorf("data fields = %v, want %v", wires, want)
	}

	if len(plan.external) != 2 {
		t.Fatalf("external fields = %d, want 2", len(plan.external))
	}
	if plan.external[0].key != "token" || plan.external[1].key != "int" {
		t.Errorf("external keys = %q, %q", plan.external[0].key, plan.external[1].key)
	}
	if !plan.isExternalWire("Injected") || plan.isExternalWire("Plain") {
		t.Error("isExternalWire() misreports fields")
	}
}

func TestBuildStructPlan_DuplicateWireName(t *testing.T) {
	_, err := buildStructPlan(reflect.TypeFor[clash](), []FieldInspector{defaultInspector{}})
	if !errors.Is(err, ErrInvalidTag) {
		t.Errorf("buildStructPlan() error = %v, want ErrInvalidTag", err)
	}
}

func TestScanStruct(t *testing.T) {
	meta := scanStruct(reflect.TypeFor[Drawing]())

	if meta.TypeName != "Drawing" {
		t.Errorf("TypeName = %q, want Drawing", meta.TypeName)
	}
	if len(meta.Fields) != 2 {
		t.Fatalf("Fields = %d, want 2", len(meta.Fields))
	}
	if meta.Fields[1].Kind != sentinel.KindSlice {
		t.Errorf("Shapes kind = %v, want slice", meta.Fields[1].Kind)
	}
	if meta.Fields[0].Tags["parcel"] != "title" {
		t.Errorf("Title tag = %q, want title", meta.Fields[0].Tags["parcel"])
	}
}

func TestScanStruct_UsesSentinelCache(t *testing.T) {
	sentinel.Inspect[tagged]()

	meta := scanStruct(reflect.TypeFor[tagged]())
	if meta.FQDN != "github.com/zoobzio/parcel.tagged" {
		t.Errorf("FQDN = %q, want cached sentinel metadata", meta.FQDN)
	}

	byName := make(map[string]sentinel.FieldMetadata, len(meta.Fields))
	for _, f := range meta.Fields {
		byName[f.Name] = f
	}
	if _, ok := byName["hidden"]; ok {
		t.Error("unexported field should not be scanned")
	}
	tag, ok := byName["ByType"].Tags["inject"]
	if !ok || tag != "" {
		t.Errorf("ByType inject tag = %q, %v; want empty marker kept", tag, ok)
	}
	if byName["Optional"].Tags["parcel"] != "opt,omitempty" {
		t.Errorf("Optional tag = %q", byName["Optional"].Tags["parcel"])
	}
}

func TestOmitEmpty(t *testing.T) {
	s, err := ForFormat(&testCodec{}).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	got, err := s.WriteValueAsString(t.Context(), tagged{Plain: "p", Skipped: "gone", Injected: "secret"})
	if err != nil {
		t.Fatalf("WriteValueAsString() error: %v", err)
	}
	want := `{"Plain":"p","renamed":""}`
	if got != want {
		t.Errorf("WriteValueAsString() = %s, want %s", got, want)
	}
}

func TestExternalWireIgnoredOnDecode(t *testing.T) {
	s, err := ForFormat(&testCodec{}).
		WithExternalValueResolver(MapResolver{"x": 9}).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	svc, err := DeserializeAs[Service](t.Context(), s, `{"name":"n","X":1}`)
	if err != nil {
		t.Fatalf("DeserializeAs() error: %v", err)
	}
	if svc.X != 9 {
		t.Errorf("X = %d, want the resolved value 9", svc.X)
	}
}

func TestInject_Conversion(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr error
	}{
		{"assignable", 5, 5, nil},
		{"numeric conversion", int64(6), 6, nil},
		{"nil zeroes", nil, 0, nil},
		{"incompatible", "seven", 0, ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ForFormat(&testCodec{}).
				WithExternalValueResolver(ResolverFunc(func(string) (any, error) { return tt.value, nil })).
				Build()
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}

			svc, err := DeserializeAs[Service](t.Context(), s, `{"name":"n"}`)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeserializeAs() error: %v", err)
			}
			if svc.X != tt.want {
				t.Errorf("X = %d, want %d", svc.X, tt.want)
			}
		})
	}
}
