package textblock

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultMarker delimits encoded placeholders inside rendered HTML.
const DefaultMarker = "TEXTBLOCK-MARKER"

// Codec encodes placeholders into HTML text and splits rendered HTML back
// into slabs.
type Codec interface {
	// Encode returns the sentinel HTML standing in for one placeholder.
	Encode(p *Placeholder) (string, error)
	// Split decomposes HTML that contains exactly n encoded placeholders.
	Split(rendered string, n int) (Slabs, error)
	// Avoid returns a codec whose sentinels cannot be confused with
	// anything in content.
	Avoid(content string) Codec
}

// MarkerCodec writes placeholders as
//
//	MARKER<code>{percent-encoded JSON}</code>MARKER
//
// The payload is query-escaped with '-' escaped too, so it contains no
// character an HTML serializer would rewrite and never contains a marker.
// Markers must therefore contain '-'.
type MarkerCodec struct {
	Marker string
}

const (
	codeOpen  = "<code>"
	codeClose = "</code>"
)

func (c MarkerCodec) marker() string {
	if c.Marker == "" {
		return DefaultMarker
	}
	return c.Marker
}

func (c MarkerCodec) Encode(p *Placeholder) (string, error) {
	m := c.marker()
	if !strings.Contains(m, "-") {
		return "", fmt.Errorf("encode placeholder %s: marker %q has no '-'", p.Name, m)
	}
	data, err := p.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode placeholder %s: %w", p.Name, err)
	}
	enc := strings.ReplaceAll(url.QueryEscape(string(data)), "-", "%2D")
	return m + codeOpen + enc + codeClose + m, nil
}

// Avoid returns c unchanged unless content already contains its marker, in
// which case the marker gets a numeric suffix ("-1", "-2", ...) that does
// not occur in content.
func (c MarkerCodec) Avoid(content string) Codec {
	m := c.marker()
	for i := 1; strings.Contains(content, m); i++ {
		m = c.marker() + "-" + strconv.Itoa(i)
	}
	return MarkerCodec{Marker: m}
}

func (c MarkerCodec) Split(rendered string, n int) (Slabs, error) {
	parts := strings.Split(rendered, c.marker())
	if len(parts) != 2*n+1 {
		return nil, fmt.Errorf("%w: found %d markers for %d placeholders", ErrMarkerCollision, len(parts)-1, n)
	}

	slabs := make(Slabs, 0, len(parts))
	for i, part := range parts {
		if i%2 == 0 {
			if part != "" {
				slabs = append(slabs, Text(part))
			}
			continue
		}
		p, err := c.decode(part)
		if err != nil {
			return nil, err
		}
		slabs = append(slabs, Slab{Placeholder: p})
	}
	if len(slabs) == 0 {
		slabs = append(slabs, Text(""))
	}
	return slabs, nil
}

func (c MarkerCodec) decode(part string) (*Placeholder, error) {
	if !strings.HasPrefix(part, codeOpen) || !strings.HasSuffix(part, codeClose) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedPlaceholder, part)
	}
	enc := strings.TrimSuffix(strings.TrimPrefix(part, codeOpen), codeClose)
	data, err := url.QueryUnescape(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlaceholder, err)
	}
	var p Placeholder
	if err := p.UnmarshalJSON([]byte(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlaceholder, err)
	}
	return &p, nil
}
