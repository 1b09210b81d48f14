package textblock

import (
	"context"
	"sort"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Format is the extension point for registered block types.
type Format interface {
	// Validate turns untrusted fields (including "format") into a block.
	Validate(e *Engine, raw map[string]any) (Block, error)
	// Render produces HTML for a block that carries no slabs.
	Render(ctx context.Context, e *Engine, b Block, path string) (string, error)
}

// FormatFuncs adapts plain functions to Format. A nil ValidateFunc yields a
// *Custom holding a copy of the fields; a nil RenderFunc fails with
// ErrUnknownFormat.
type FormatFuncs struct {
	ValidateFunc func(e *Engine, raw map[string]any) (Block, error)
	RenderFunc   func(ctx context.Context, e *Engine, b Block, path string) (string, error)
}

func (f FormatFuncs) Validate(e *Engine, raw map[string]any) (Block, error) {
	if f.ValidateFunc != nil {
		return f.ValidateFunc(e, raw)
	}
	tag, _ := raw["format"].(string)
	fields := deepCopyMap(raw)
	delete(fields, "format")
	delete(fields, "htmlslabs")
	return &Custom{Tag: tag, Fields: fields}, nil
}

func (f FormatFuncs) Render(ctx context.Context, e *Engine, b Block, path string) (string, error) {
	if f.RenderFunc != nil {
		return f.RenderFunc(ctx, e, b, path)
	}
	return "", errorf("render", b.Format(), path, ErrUnknownFormat, "no renderer for %q", b.Format())
}

// MarkFunc returns the sentinel HTML a scanner substitutes for an element.
// The enhancement's name is injected into the payload.
type MarkFunc func(payload map[string]any) string

// Enhancement scans sanitized HTML for elements to replace with
// placeholders and later resolves those placeholders into HTML.
type Enhancement interface {
	Scan(doc *goquery.Document, mark MarkFunc) error
	Resolve(ctx context.Context, p *Placeholder) (string, error)
}

// EnhancementFuncs adapts plain functions to Enhancement.
type EnhancementFuncs struct {
	ScanFunc    func(doc *goquery.Document, mark MarkFunc) error
	ResolveFunc func(ctx context.Context, p *Placeholder) (string, error)
}

func (f EnhancementFuncs) Scan(doc *goquery.Document, mark MarkFunc) error {
	if f.ScanFunc == nil {
		return nil
	}
	return f.ScanFunc(doc, mark)
}

func (f EnhancementFuncs) Resolve(ctx context.Context, p *Placeholder) (string, error) {
	if f.ResolveFunc == nil {
		return "", nil
	}
	return f.ResolveFunc(ctx, p)
}

// Registry maps format tags to Formats and enhancement names to
// Enhancements. It is meant to be filled once at startup; entries can
// never be removed or replaced.
type Registry struct {
	mu           sync.RWMutex
	formats      map[string]Format
	enhancements map[string]Enhancement
	order        []string // enhancement names in registration order
}

type namedEnhancement struct {
	name string
	enh  Enhancement
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		formats:      make(map[string]Format),
		enhancements: make(map[string]Enhancement),
	}
}

func isBuiltin(tag string) bool {
	switch tag {
	case FormatHTML, FormatMarkdown, FormatPlainishText, FormatSection, FormatPragma:
		return true
	}
	return false
}

// RegisterFormat registers f under tag. Built-in tags and tags already
// registered fail with ErrDuplicateRegistration.
func (r *Registry) RegisterFormat(tag string, f Format) error {
	if tag == "" || f == nil {
		return errorf("register", tag, "", ErrInvalidFormat, "format needs a tag and a handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.formats[tag]; ok || isBuiltin(tag) {
		return errorf("register", tag, "", ErrDuplicateRegistration, "format %q already registered", tag)
	}
	r.formats[tag] = f
	return nil
}

// RegisterEnhancement registers enh under name. Scanners run in
// registration order.
func (r *Registry) RegisterEnhancement(name string, enh Enhancement) error {
	if name == "" || enh == nil {
		return errorf("register", "", "", ErrInvalidFormat, "enhancement needs a name and a handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enhancements[name]; ok {
		return errorf("register", "", "", ErrDuplicateRegistration, "enhancement %q already registered", name)
	}
	r.enhancements[name] = enh
	r.order = append(r.order, name)
	return nil
}

// Format returns the handler registered for tag.
func (r *Registry) Format(tag string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[tag]
	return f, ok
}

// Enhancement returns the enhancement registered under name.
func (r *Registry) Enhancement(name string) (Enhancement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	enh, ok := r.enhancements[name]
	return enh, ok
}

// Formats lists registered tags, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.formats))
	for tag := range r.formats {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Enhancements lists enhancement names in registration order.
func (r *Registry) Enhancements() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) scanners() []namedEnhancement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]namedEnhancement, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, namedEnhancement{name, r.enhancements[name]})
	}
	return out
}
