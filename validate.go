package textblock

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// PragmaValidator checks a pragma block during validation. Its result
// replaces the pragma verbatim.
type PragmaValidator func(raw map[string]any) (Block, error)

// ValidateOptions controls a validation pass.
type ValidateOptions struct {
	// Pragma, if set, is called for every pragma block. Without it pragmas
	// pass through unchanged.
	Pragma PragmaValidator
	// SkipEnhancements leaves every block with a single literal slab.
	SkipEnhancements bool
}

// Validate converts an untrusted block tree into its sanitized canonical
// form. raw may be a Block or decoded JSON (map[string]any with []any
// children). Incoming htmlslabs are ignored and always recomputed.
//
// Validation is fail-fast: on error no part of the tree is returned.
func (e *Engine) Validate(raw any) (Block, error) {
	return e.ValidateWithOptions(raw, ValidateOptions{})
}

// ValidateWithOptions is Validate with explicit options.
func (e *Engine) ValidateWithOptions(raw any, opts ValidateOptions) (Block, error) {
	v := &validator{e: e, opts: opts}
	b, err := v.node(raw, "", true)
	if err != nil {
		e.log.Debug("textblock: validation failed", "error", err)
		return nil, err
	}
	e.log.Debug("textblock: validated", "format", b.Format())
	return b, nil
}

// ValidateJSON decodes a JSON object (numbers as json.Number) and
// validates it.
func (e *Engine) ValidateJSON(data []byte, opts ValidateOptions) (Block, error) {
	raw, err := decodeValue(data)
	if err != nil {
		return nil, errorf("validate", "", "", ErrInvalidFormat, "decode: %v", err)
	}
	return e.ValidateWithOptions(raw, opts)
}

type validator struct {
	e    *Engine
	opts ValidateOptions
}

func (v *validator) node(raw any, path string, top bool) (Block, error) {
	if b, ok := raw.(Block); ok && isNil(b) {
		return nil, v.badTag(path, top, "", "nil %T block", raw)
	}
	switch x := raw.(type) {
	case map[string]any:
		return v.object(x, path, top)
	case *Custom:
		return v.object(x.raw(), path, top)
	case Block:
		return v.block(x, path, top)
	}
	return nil, v.badTag(path, top, "", "expected an object, got %T", raw)
}

// badTag reports an unusable format tag: ErrInvalidFormat at the root,
// ErrInvalidBlockType inside a section.
func (v *validator) badTag(path string, top bool, tag, msg string, args ...any) error {
	sentinel := ErrInvalidBlockType
	if top {
		sentinel = ErrInvalidFormat
	}
	return errorf("validate", tag, path, sentinel, msg, args...)
}

func (v *validator) object(m map[string]any, path string, top bool) (Block, error) {
	tag, _ := m["format"].(string)
	switch tag {
	case FormatHTML, FormatMarkdown, FormatPlainishText:
		src, ok := m["source"].(string)
		if !ok {
			return nil, errorf("validate", tag, path, ErrMissingContent, "%s block has no source", tag)
		}
		return v.source(tag, src, path)
	case FormatSection:
		children, ok := asList(m["blocks"])
		if !ok {
			return nil, errorf("validate", tag, path, ErrMissingContent, "section block has no blocks")
		}
		return v.section(children, path)
	case FormatPragma:
		return v.pragma(m, path)
	case "":
		return nil, v.badTag(path, top, "", "block has no format")
	}
	if f, ok := v.e.reg.Format(tag); ok {
		b, err := f.Validate(v.e, deepCopyMap(m))
		if err != nil {
			return nil, withPath(err, tag, path)
		}
		if b == nil {
			return nil, errorf("validate", tag, path, ErrMissingContent, "validator returned no block")
		}
		return b, nil
	}
	return nil, v.badTag(path, top, tag, "unrecognized format %q", tag)
}

func (v *validator) block(b Block, path string, top bool) (Block, error) {
	if isNil(b) {
		return nil, v.badTag(path, top, "", "nil %T block", b)
	}
	switch x := b.(type) {
	case *HTML:
		return v.source(FormatHTML, x.Source, path)
	case *Markdown:
		return v.source(FormatMarkdown, x.Source, path)
	case *PlainishText:
		return v.source(FormatPlainishText, x.Source, path)
	case *Section:
		children := make([]any, len(x.Blocks))
		for i, c := range x.Blocks {
			children[i] = c
		}
		return v.section(children, path)
	case *Pragma:
		if v.opts.Pragma == nil {
			return x, nil
		}
		return v.pragma(x.raw(), path)
	}
	m, err := toRaw(b)
	if err != nil {
		return nil, v.badTag(path, top, b.Format(), "%v", err)
	}
	return v.object(m, path, top)
}

func (v *validator) source(tag, src, path string) (Block, error) {
	var out string
	switch tag {
	case FormatHTML:
		out = v.e.sanitizer.Sanitize(src)
	case FormatMarkdown:
		var err error
		if out, err = v.e.markdown.Render(src); err != nil {
			return nil, withPath(err, tag, path)
		}
	case FormatPlainishText:
		out = Paragraphs(src)
	}

	slabs, err := v.e.slabs(out, !v.opts.SkipEnhancements)
	if err != nil {
		return nil, withPath(err, tag, path)
	}

	switch tag {
	case FormatHTML:
		return &HTML{Source: out, Slabs: slabs}, nil
	case FormatMarkdown:
		return &Markdown{Source: src, Slabs: slabs}, nil
	default:
		return &PlainishText{Source: src, Slabs: slabs}, nil
	}
}

func (v *validator) section(children []any, path string) (Block, error) {
	blocks := make([]Block, 0, len(children))
	for i, c := range children {
		b, err := v.node(c, childPath(path, i), false)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return &Section{Blocks: blocks}, nil
}

func (v *validator) pragma(m map[string]any, path string) (Block, error) {
	if v.opts.Pragma == nil {
		fields := deepCopyMap(m)
		delete(fields, "format")
		return &Pragma{Fields: fields}, nil
	}
	b, err := v.opts.Pragma(deepCopyMap(m))
	if err != nil {
		return nil, withPath(err, FormatPragma, path)
	}
	return b, nil
}

func childPath(path string, i int) string {
	if path == "" {
		return fmt.Sprintf("blocks[%d]", i)
	}
	return fmt.Sprintf("%s.blocks[%d]", path, i)
}

func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []map[string]any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	case []Block:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	}
	return nil, false
}

// withPath attaches the failing node's position to err.
func withPath(err error, format, path string) error {
	var re *ResolverError
	if errors.As(err, &re) {
		if re.Path == "" {
			re.Path = path
		}
		return err
	}
	var te *Error
	if errors.As(err, &te) {
		if te.Path == "" {
			te.Path = path
		}
		if te.Format == "" {
			te.Format = format
		}
		return err
	}
	return &Error{Op: "validate", Format: format, Path: path, Err: err}
}

// toRaw flattens a caller-defined block through its JSON form.
func toRaw(b Block) (map[string]any, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	raw, err := decodeValue(data)
	if err != nil {
		return nil, err
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("block %T does not marshal to an object", b)
	}
	if _, ok := m["format"]; !ok {
		m["format"] = b.Format()
	}
	return m, nil
}

func decodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
