// Package json provides a JSON codec implementation.
package json

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/zoobzio/parcel"
)

// api mirrors encoding/json behaviour with sorted keys and numbers kept
// as json.Number, so integers survive decoding untouched.
var api = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// DefaultIndent is the number of spaces per level used by Indent.
const DefaultIndent = 2

// jsonCodec implements parcel.Codec for JSON.
// The indent is always spaces; jsoniter rejects any other character.
type jsonCodec struct {
	indent string
}

var _ parcel.Indenter = (*jsonCodec)(nil)

// New returns a JSON codec producing compact output.
func New() parcel.Codec {
	return &jsonCodec{}
}

// NewIndented returns a JSON codec indenting each level by spaces.
// A non-positive width produces compact output.
func NewIndented(spaces int) parcel.Codec {
	if spaces <= 0 {
		return &jsonCodec{}
	}
	return &jsonCodec{indent: strings.Repeat(" ", spaces)}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Format reports JSON as a text format.
func (c *jsonCodec) Format() parcel.Format {
	return parcel.FormatText
}

// Indent returns a codec with DefaultIndent, or c if already indenting.
func (c *jsonCodec) Indent() parcel.Codec {
	if c.indent != "" {
		return c
	}
	return NewIndented(DefaultIndent)
}

// Marshal encodes v as JSON.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	if c.indent != "" {
		return api.MarshalIndent(v, "", c.indent)
	}
	return api.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}
