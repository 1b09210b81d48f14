package textblock

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// MarkdownRenderer turns markdown into HTML. Implementations must never
// pass raw HTML from the input through; the validator does not re-check.
type MarkdownRenderer interface {
	Render(src string) (string, error)
}

// Goldmark renders markdown with goldmark and sanitizes the result.
// Raw HTML in the input is omitted (goldmark's WithUnsafe is never set).
type Goldmark struct {
	md        goldmark.Markdown
	sanitizer Sanitizer
}

// NewGoldmark returns a renderer configured by opts. A nil sanitizer skips
// the post-render pass.
func NewGoldmark(opts MarkdownOptions, s Sanitizer) *Goldmark {
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}

	var parserOpts []parser.Option
	if opts.HeadingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	var rendererOpts []goldmark.Option
	var htmlOpts []renderer.Option
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, goldmarkhtml.WithHardWraps())
	}
	if opts.XHTML {
		htmlOpts = append(htmlOpts, goldmarkhtml.WithXHTML())
	}
	if len(htmlOpts) > 0 {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(htmlOpts...))
	}

	md := goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
	}, rendererOpts...)...)
	return &Goldmark{md: md, sanitizer: s}
}

func (g *Goldmark) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	if g.sanitizer == nil {
		return buf.String(), nil
	}
	return g.sanitizer.Sanitize(buf.String()), nil
}
