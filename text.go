package textblock

import "strings"

// ExtractText returns the indexable plain text of a validated tree.
// Placeholders never contribute text. Sections join their children in
// order; pragmas, registered blocks without slabs and unvalidated blocks
// yield "".
func (e *Engine) ExtractText(b Block) string {
	if isNil(b) {
		return ""
	}
	switch x := b.(type) {
	case *Section:
		var buf strings.Builder
		for _, child := range x.Blocks {
			buf.WriteString(e.ExtractText(child))
		}
		return buf.String()
	case Slabbed:
		slabs := x.HTMLSlabs()
		if slabs == nil {
			return ""
		}
		return e.stripper.Strip(slabs.Literal())
	}
	return ""
}
