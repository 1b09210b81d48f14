// Package textblock renders untrusted, user-authored content into
// sanitized, embeddable HTML.
//
// # Overview
//
// Content is a tree of blocks. Each [Block] is tagged by a format:
//   - html: raw HTML, sanitized on validation
//   - markdown: rendered by goldmark with raw HTML disabled, then sanitized
//   - plainishtext: escaped text wrapped into paragraphs
//   - section: an ordered list of child blocks
//   - pragma: an opaque directive the host application resolves
//
// Further formats can be added through a [Registry].
//
// An [Engine] runs four passes over a tree:
//   - [Engine.Validate] turns untrusted input (a Block or decoded JSON)
//     into a sanitized tree. Each leaf carries its HTML as [Slabs].
//   - [Engine.ResolvePragmas] replaces pragma blocks using a caller
//     resolver, concurrently and in order.
//   - [Engine.Render] joins the slabs into the final HTML.
//   - [Engine.ExtractText] returns the literal text for indexing.
//
// # Slabs and enhancements
//
// An [Enhancement] pairs a scanner with a resolver. During validation the
// scanner sees the sanitized HTML as a goquery document and replaces the
// elements it wants with placeholder sentinels:
//
//	TEXTBLOCK-MARKER<code>%7B%22name%22%3A...%7D</code>TEXTBLOCK-MARKER
//
// The document is then serialized and split on the marker. The result is a
// list of literal HTML strings and [Placeholder] records. At render time
// each placeholder is handed to its resolver, so per-element asynchronous
// work needs no second parse or sanitize. If no scanner matches, a block's
// slabs are just its sanitized HTML.
//
// # Paths
//
// Render and ResolvePragmas address section children as path+"_"+index, so
// starting from "0" the second child of the first child is "0_0_1".
// Resolvers can use the path to tell repeated pragmas apart.
//
// # Errors
//
// Errors match the sentinels in this package with errors.Is:
// [ErrInvalidFormat], [ErrMissingContent], [ErrInvalidBlockType],
// [ErrUnknownFormat], [ErrDuplicateRegistration] and [ErrResolver].
// Validation failures are [*Error] values carrying the failing path.
// Resolver failures are [*ResolverError] values wrapping the original error.
//
// # Thread Safety
//
// An Engine is safe for concurrent use. Register formats and enhancements
// at startup; registration is locked, but an enhancement registered while
// content is being validated may or may not see that content.
//
// # Example
//
//	e := textblock.New(nil)
//	b, err := e.Validate(map[string]any{"format": "markdown", "source": "# hi"})
//	if err != nil {
//		return err
//	}
//	out, err := e.Render(ctx, b, "0")
package textblock
