package textblock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Built-in format tags.
const (
	FormatHTML         = "html"
	FormatMarkdown     = "markdown"
	FormatPlainishText = "plainishtext"
	FormatSection      = "section"
	FormatPragma       = "pragma"
)

// Block is a node in the content tree, tagged by its format.
//
// The built-in variants are *HTML, *Markdown, *PlainishText, *Section and
// *Pragma. Registered formats use *Custom or any caller type that
// implements Block and marshals to a JSON object.
type Block interface {
	Format() string
}

// Slabbed is implemented by blocks that may carry computed slabs. A nil
// result means the block has not been validated yet.
type Slabbed interface {
	HTMLSlabs() Slabs
}

// HTML holds sanitized HTML. Source is the sanitizer output once validated.
type HTML struct {
	Source string
	Slabs  Slabs
}

// Markdown holds raw markdown and, once validated, its rendered slabs.
type Markdown struct {
	Source string
	Slabs  Slabs
}

// PlainishText holds raw text that renders as escaped paragraphs.
type PlainishText struct {
	Source string
	Slabs  Slabs
}

// Section groups an ordered list of child blocks.
type Section struct {
	Blocks []Block
}

// Pragma is an opaque directive owned by the host application. Fields holds
// everything except the format tag.
type Pragma struct {
	Fields map[string]any
}

// Custom is a block of a registered format. Validators may set Slabs to
// have the block rendered like the built-in HTML formats.
type Custom struct {
	Tag    string
	Fields map[string]any
	Slabs  Slabs
}

func (*HTML) Format() string         { return FormatHTML }
func (*Markdown) Format() string     { return FormatMarkdown }
func (*PlainishText) Format() string { return FormatPlainishText }
func (*Section) Format() string      { return FormatSection }
func (*Pragma) Format() string       { return FormatPragma }
func (c *Custom) Format() string     { return c.Tag }

func (b *HTML) HTMLSlabs() Slabs         { return b.Slabs }
func (b *Markdown) HTMLSlabs() Slabs     { return b.Slabs }
func (b *PlainishText) HTMLSlabs() Slabs { return b.Slabs }
func (c *Custom) HTMLSlabs() Slabs       { return c.Slabs }

// isNil reports whether b is nil or a nil pointer of a built-in type.
func isNil(b Block) bool {
	switch x := b.(type) {
	case nil:
		return true
	case *HTML:
		return x == nil
	case *Markdown:
		return x == nil
	case *PlainishText:
		return x == nil
	case *Section:
		return x == nil
	case *Pragma:
		return x == nil
	case *Custom:
		return x == nil
	}
	return false
}

// NewSection wraps blocks into a section, preserving their order.
func NewSection(blocks ...Block) *Section {
	return &Section{Blocks: append([]Block(nil), blocks...)}
}

// Get returns a pragma field.
func (p *Pragma) Get(key string) (any, bool) {
	v, ok := p.Fields[key]
	return v, ok
}

// String returns a string pragma field, or "" if absent or not a string.
func (p *Pragma) String(key string) string {
	s, _ := p.Fields[key].(string)
	return s
}

//
// Slabs
//

// Slab is one segment of sanitized HTML: literal text, or a placeholder
// when Placeholder is non-nil.
type Slab struct {
	Text        string
	Placeholder *Placeholder
}

// Slabs is an ordered decomposition of sanitized HTML.
type Slabs []Slab

// Placeholder stands in for an element that an enhancement resolver will
// render later. Name selects the resolver; Payload is whatever the scanner
// captured.
type Placeholder struct {
	Name    string
	Payload map[string]any
}

// Text returns a literal slab.
func Text(s string) Slab { return Slab{Text: s} }

// IsPlaceholder reports whether the slab is a placeholder.
func (s Slab) IsPlaceholder() bool { return s.Placeholder != nil }

// Literal concatenates the literal segments, dropping placeholders.
func (s Slabs) Literal() string {
	var buf strings.Builder
	for _, slab := range s {
		if !slab.IsPlaceholder() {
			buf.WriteString(slab.Text)
		}
	}
	return buf.String()
}

// Placeholders returns the placeholders in order.
func (s Slabs) Placeholders() []*Placeholder {
	var out []*Placeholder
	for _, slab := range s {
		if slab.IsPlaceholder() {
			out = append(out, slab.Placeholder)
		}
	}
	return out
}

// Get returns a payload value.
func (p *Placeholder) Get(key string) (any, bool) {
	v, ok := p.Payload[key]
	return v, ok
}

// String returns a string payload value, or "" if absent or not a string.
func (p *Placeholder) String(key string) string {
	s, _ := p.Payload[key].(string)
	return s
}

//
// JSON
//

type sourceJSON struct {
	Format    string `json:"format"`
	Source    string `json:"source"`
	HTMLSlabs Slabs  `json:"htmlslabs,omitempty"`
}

func (b *HTML) MarshalJSON() ([]byte, error) {
	return marshal(sourceJSON{FormatHTML, b.Source, b.Slabs})
}

func (b *Markdown) MarshalJSON() ([]byte, error) {
	return marshal(sourceJSON{FormatMarkdown, b.Source, b.Slabs})
}

func (b *PlainishText) MarshalJSON() ([]byte, error) {
	return marshal(sourceJSON{FormatPlainishText, b.Source, b.Slabs})
}

func (s *Section) MarshalJSON() ([]byte, error) {
	blocks := s.Blocks
	if blocks == nil {
		blocks = []Block{}
	}
	return marshal(struct {
		Format string  `json:"format"`
		Blocks []Block `json:"blocks"`
	}{FormatSection, blocks})
}

func (p *Pragma) MarshalJSON() ([]byte, error) {
	return marshal(p.raw())
}

func (c *Custom) MarshalJSON() ([]byte, error) {
	m := c.raw()
	if c.Slabs != nil {
		m["htmlslabs"] = c.Slabs
	}
	return marshal(m)
}

func (p *Pragma) raw() map[string]any {
	m := deepCopyMap(p.Fields)
	if m == nil {
		m = make(map[string]any, 1)
	}
	m["format"] = FormatPragma
	return m
}

func (c *Custom) raw() map[string]any {
	m := deepCopyMap(c.Fields)
	if m == nil {
		m = make(map[string]any, 1)
	}
	m["format"] = c.Tag
	return m
}

func (s Slab) MarshalJSON() ([]byte, error) {
	if s.Placeholder != nil {
		return s.Placeholder.MarshalJSON()
	}
	return marshal(s.Text)
}

func (s *Slab) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*s = Slab{}
		return json.Unmarshal(b, &s.Text)
	}
	var p Placeholder
	if err := p.UnmarshalJSON(b); err != nil {
		return err
	}
	*s = Slab{Placeholder: &p}
	return nil
}

// MarshalJSON emits the payload with "name" injected.
func (p Placeholder) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Payload)+1)
	for k, v := range p.Payload {
		m[k] = v
	}
	m["name"] = p.Name
	return marshal(m)
}

// UnmarshalJSON splits "name" out of the object; numbers decode as
// json.Number.
func (p *Placeholder) UnmarshalJSON(b []byte) error {
	obj, err := decodeObject(b)
	if err != nil {
		return err
	}
	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return fmt.Errorf("%w: missing name", ErrMalformedPlaceholder)
	}
	delete(obj, "name")
	p.Name = name
	p.Payload = obj
	return nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: expected JSON object", ErrMalformedPlaceholder)
	}
	return obj, nil
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyAny(v)
	}
	return out
}

func deepCopyAny(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return deepCopyMap(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepCopyAny(x[i])
		}
		return out
	case json.RawMessage:
		cp := make([]byte, len(x))
		copy(cp, x)
		return json.RawMessage(cp)
	default:
		return x
	}
}
