// Package yaml provides a YAML codec implementation.
package yaml

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/zoobzio/parcel"
)

// DefaultIndent is the number of spaces per level used by Indent.
const DefaultIndent = 2

// yamlCodec implements parcel.Codec for YAML.
type yamlCodec struct {
	indent int // zero means the yaml.v3 default
}

var _ parcel.Indenter = (*yamlCodec)(nil)

// New returns a YAML codec.
func New() parcel.Codec {
	return &yamlCodec{}
}

// NewIndented returns a YAML codec indenting each level by spaces.
func NewIndented(spaces int) parcel.Codec {
	return &yamlCodec{indent: spaces}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Format reports YAML as a text format.
func (c *yamlCodec) Format() parcel.Format {
	return parcel.FormatText
}

// Indent returns a codec with DefaultIndent, or c if already indenting.
func (c *yamlCodec) Indent() parcel.Codec {
	if c.indent != 0 {
		return c
	}
	return &yamlCodec{indent: DefaultIndent}
}

// Marshal encodes v as YAML.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	if c.indent == 0 {
		return yaml.Marshal(v)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(c.indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes YAML data into v.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
