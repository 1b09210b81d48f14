package textblock

import (
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Engine runs the validation, pragma resolution, output and text
// extraction passes against one Registry. An Engine is safe for concurrent
// use once its Registry is populated.
type Engine struct {
	reg         *Registry
	sanitizer   Sanitizer
	markdown    MarkdownRenderer
	stripper    Stripper
	codec       Codec
	log         *slog.Logger
	concurrency int
}

// New returns an Engine. If cfg is nil, DefaultConfig is used; nil fields
// of cfg take their defaults.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		reg:         cfg.Registry,
		sanitizer:   cfg.Sanitizer,
		markdown:    cfg.Markdown,
		stripper:    cfg.Stripper,
		codec:       cfg.Codec,
		log:         cfg.Logger,
		concurrency: cfg.Concurrency,
	}
	if e.reg == nil {
		e.reg = NewRegistry()
	}
	if e.sanitizer == nil {
		e.sanitizer = DefaultPolicy()
	}
	if e.markdown == nil {
		e.markdown = NewGoldmark(DefaultOptions().Markdown, e.sanitizer)
	}
	if e.stripper == nil {
		e.stripper = StripperFunc(stripTags)
	}
	if e.codec == nil {
		e.codec = MarkerCodec{Marker: DefaultMarker}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry { return e.reg }

// Sanitize runs the engine's sanitizer. Custom format validators use it for
// HTML they accept from callers.
func (e *Engine) Sanitize(html string) string { return e.sanitizer.Sanitize(html) }

func (e *Engine) group(g *errgroup.Group) {
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}
}
