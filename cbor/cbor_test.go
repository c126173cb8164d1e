package cbor

import (
	"bytes"
	"testing"

	"github.com/zoobzio/parcel"
)

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Error("New() should return non-nil codec")
	}
}

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/cbor" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/cbor")
	}
}

func TestFormat(t *testing.T) {
	if New().Format() != parcel.FormatBinary {
		t.Error("Format() should be FormatBinary")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	original := map[string]any{
		"obj": []any{"int64", int64(-7)},
	}

	data, err := c.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var restored any
	if err := c.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	m, ok := restored.(map[string]any)
	if !ok {
		t.Fatalf("Unmarshal() = %T, want map[string]any", restored)
	}
	tag, ok := m["obj"].([]any)
	if !ok || len(tag) != 2 {
		t.Fatalf("obj = %#v, want two-element list", m["obj"])
	}
	if tag[0] != "int64" {
		t.Errorf("tag id = %v, want int64", tag[0])
	}
	if tag[1] != int64(-7) {
		t.Errorf("payload = %#v, want int64(-7)", tag[1])
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	c := New()

	a, err := c.Marshal(map[string]any{"b": "x", "a": "y", "c": "z"})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	b, err := c.Marshal(map[string]any{"c": "z", "a": "y", "b": "x"})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("equal maps should encode identically")
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	tests := [][]byte{
		{0xff},
		{0xa1, 0x61},
		[]byte("not cbor"),
	}

	for _, input := range tests {
		var v any
		if err := c.Unmarshal(input, &v); err == nil {
			t.Errorf("Unmarshal(%x) should return error", input)
		}
	}
}
