package textblock

import (
	"fmt"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips script-execution vectors from HTML. Implementations must
// be idempotent and safe for concurrent use. *bluemonday.Policy satisfies
// Sanitizer directly.
type Sanitizer interface {
	Sanitize(html string) string
}

// SanitizerFunc adapts a function to Sanitizer.
type SanitizerFunc func(html string) string

func (f SanitizerFunc) Sanitize(html string) string { return f(html) }

// DefaultPolicy returns the user-generated-content policy with no extra
// rules.
func DefaultPolicy() *bluemonday.Policy {
	return bluemonday.UGCPolicy()
}

// NewPolicy builds a UGC policy extended by opts. Enhancement scanners
// usually key off attributes, so those attributes must be allowed here or
// the sanitizer removes them before scanning.
func NewPolicy(opts SanitizerOptions) (*bluemonday.Policy, error) {
	p := bluemonday.UGCPolicy()
	if opts.AllowDataAttributes {
		p.AllowDataAttributes()
	}
	for i, rule := range opts.AllowAttrs {
		if len(rule.Attrs) == 0 {
			return nil, fmt.Errorf("sanitizer allow_attrs[%d]: no attrs", i)
		}
		b := p.AllowAttrs(rule.Attrs...)
		if rule.Matching != "" {
			re, err := regexp.Compile(rule.Matching)
			if err != nil {
				return nil, fmt.Errorf("sanitizer allow_attrs[%d]: %w", i, err)
			}
			b = b.Matching(re)
		}
		if len(rule.Elements) == 0 {
			b.Globally()
		} else {
			b.OnElements(rule.Elements...)
		}
	}
	if opts.TargetBlank {
		p.AddTargetBlankToFullyQualifiedLinks(true)
	}
	return p, nil
}
