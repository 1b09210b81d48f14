package textblock

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Slabs splits sanitized HTML into literal and placeholder segments by
// running every registered enhancement scanner over it. When no scanner
// marks anything the result is exactly Slabs{Text(sanitized)}.
//
// Every string returned by the MarkFunc must end up in the document exactly
// once; anything else fails with ErrMarkerCollision.
func (e *Engine) Slabs(sanitized string) (Slabs, error) {
	return e.slabs(sanitized, true)
}

func (e *Engine) slabs(sanitized string, scan bool) (Slabs, error) {
	scanners := e.reg.scanners()
	if !scan || len(scanners) == 0 {
		return Slabs{Text(sanitized)}, nil
	}

	root, err := parseFragment(sanitized)
	if err != nil {
		return nil, newError("slab", "", "", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	// Marks are encoded against the serialized form, which is what gets
	// split. Entities in sanitized can decode into a marker there.
	base, err := renderChildren(root)
	if err != nil {
		return nil, newError("slab", "", "", err)
	}
	codec := e.codec.Avoid(base)

	count := 0
	var markErr error
	for _, s := range scanners {
		name := s.name
		mark := func(payload map[string]any) string {
			sentinel, err := codec.Encode(&Placeholder{Name: name, Payload: payload})
			if err != nil {
				if markErr == nil {
					markErr = err
				}
				return ""
			}
			count++
			return sentinel
		}
		if err := s.enh.Scan(doc, mark); err != nil {
			return nil, &ResolverError{Kind: "scan", Name: name, Err: err}
		}
		if markErr != nil {
			return nil, newError("slab", "", "", markErr)
		}
	}
	if count == 0 {
		return Slabs{Text(sanitized)}, nil
	}

	out, err := renderChildren(root)
	if err != nil {
		return nil, newError("slab", "", "", err)
	}
	slabs, err := codec.Split(out, count)
	if err != nil {
		return nil, newError("slab", "", "", err)
	}
	e.log.Debug("textblock: computed slabs", "placeholders", count, "slabs", len(slabs))
	return slabs, nil
}

// parseFragment parses HTML as the content of a <body> element and returns
// a detached body node holding the result.
func parseFragment(s string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func renderChildren(root *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
