package textblock_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/njchilds90/textblock"
)

// echoEnhancement marks <span data-user> and resolves to the original
// element, so rendering must reproduce the sanitized input.
func echoEnhancement() textblock.Enhancement {
	return textblock.EnhancementFuncs{
		ScanFunc: func(doc *goquery.Document, mark textblock.MarkFunc) error {
			doc.Find("span[data-user]").Each(func(_ int, s *goquery.Selection) {
				outer, _ := goquery.OuterHtml(s)
				s.ReplaceWithHtml(mark(map[string]any{"html": outer}))
			})
			return nil
		},
		ResolveFunc: func(_ context.Context, p *textblock.Placeholder) (string, error) {
			return p.String("html"), nil
		},
	}
}

func TestSlabs_NoScannersIdentity(t *testing.T) {
	e := newPassthroughEngine(t)
	src := `<p>plain <b>text</b></p>`
	got, err := e.Slabs(src)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(textblock.Slabs{textblock.Text(src)}, got); diff != "" {
		t.Errorf("slabs mismatch (-want +got):\n%s", diff)
	}
}

func TestSlabs_NoMatchIdentity(t *testing.T) {
	e := newPassthroughEngine(t)
	e.Registry().RegisterEnhancement("user", userEnhancement())
	// Not in canonical serializer form; must come back byte for byte.
	src := `<P CLASS=x>no mentions<br></P>`
	got, err := e.Slabs(src)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(textblock.Slabs{textblock.Text(src)}, got); diff != "" {
		t.Errorf("slabs mismatch (-want +got):\n%s", diff)
	}
}

func TestSlabs_Placeholder(t *testing.T) {
	e := newPassthroughEngine(t)
	e.Registry().RegisterEnhancement("user", userEnhancement())
	got, err := e.Slabs(`<p>hi <span data-user="bob">x</span> there</p>`)
	if err != nil {
		t.Fatal(err)
	}
	want := textblock.Slabs{
		textblock.Text("<p>hi "),
		{Placeholder: &textblock.Placeholder{Name: "user", Payload: map[string]any{"user": "bob"}}},
		textblock.Text(" there</p>"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("slabs mismatch (-want +got):\n%s", diff)
	}
}

func TestSlabs_AdjacentPlaceholdersDropEmptyLiterals(t *testing.T) {
	e := newPassthroughEngine(t)
	e.Registry().RegisterEnhancement("user", userEnhancement())
	got, err := e.Slabs(`<span data-user="a">a</span><span data-user="b">b</span>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[0].IsPlaceholder() || !got[1].IsPlaceholder() {
		t.Fatalf("expected two placeholders, got %+v", got)
	}
	if got[0].Placeholder.String("user") != "a" || got[1].Placeholder.String("user") != "b" {
		t.Errorf("placeholders out of order: %+v", got)
	}
}

func TestSlabs_RoundTrip(t *testing.T) {
	e := newPassthroughEngine(t)
	e.Registry().RegisterEnhancement("echo", echoEnhancement())
	src := `<h1>Title</h1><p>Hello <span data-user="ana">ana</span> and <span data-user="bo">bo</span>.</p><ul><li>one</li></ul>`
	b, err := e.Validate(&textblock.HTML{Source: src})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(b.(*textblock.HTML).Slabs.Placeholders()); n != 2 {
		t.Fatalf("expected 2 placeholders, got %d", n)
	}
	out, err := e.Render(context.Background(), b, "0")
	if err != nil {
		t.Fatal(err)
	}
	if out != src {
		t.Errorf("round trip changed HTML:\ngot  %s\nwant %s", out, src)
	}
}

func TestSlabs_MultipleScannersInOrder(t *testing.T) {
	e := newPassthroughEngine(t)
	e.Registry().RegisterEnhancement("user", userEnhancement())
	e.Registry().RegisterEnhancement("tag", textblock.EnhancementFuncs{
		ScanFunc: func(doc *goquery.Document, mark textblock.MarkFunc) error {
			doc.Find("span[data-tag]").Each(func(_ int, s *goquery.Selection) {
				s.ReplaceWithHtml(mark(map[string]any{"tag": s.AttrOr("data-tag", "")}))
			})
			return nil
		},
		ResolveFunc: func(_ context.Context, p *textblock.Placeholder) (string, error) {
			return "#" + p.String("tag"), nil
		},
	})
	b, err := e.Validate(&textblock.HTML{Source: `<p><span data-tag="go">go</span> by <span data-user="rob">rob</span></p>`})
	if err != nil {
		t.Fatal(err)
	}
	out, err := e.Render(context.Background(), b, "0")
	if err != nil {
		t.Fatal(err)
	}
	if want := `<p>#go by <a href="/u/rob">@rob</a></p>`; out != want {
		t.Errorf("got %q want %q", out, want)
	}
}

func TestSlabs_MarkerInContentRoundTrips(t *testing.T) {
	e := newPassthroughEngine(t)
	e.Registry().RegisterEnhancement("echo", echoEnhancement())
	src := `<p>TEXTBLOCK-MARKER and TEXTBLOCK-MARKER-1 <span data-user="TEXTBLOCK-MARKER">x</span></p>`
	b, err := e.Validate(&textblock.HTML{Source: src})
	if err != nil {
		t.Fatal(err)
	}
	slabs := b.(*textblock.HTML).Slabs
	if n := len(slabs.Placeholders()); n != 1 {
		t.Fatalf("expected 1 placeholder, got %d: %+v", n, slabs)
	}
	out, err := e.Render(context.Background(), b, "0")
	if err != nil {
		t.Fatal(err)
	}
	if out != src {
		t.Errorf("round trip changed HTML:\ngot  %s\nwant %s", out, src)
	}
}

func TestSlabs_MarkerFromEntities(t *testing.T) {
	e := newPassthroughEngine(t)
	e.Registry().RegisterEnhancement("user", userEnhancement())
	b, err := e.Validate(&textblock.HTML{Source: `<p>TEXTBLOCK&#45;MARKER <span data-user="a">a</span></p>`})
	if err != nil {
		t.Fatal(err)
	}
	out, err := e.Render(context.Background(), b, "0")
	if err != nil {
		t.Fatal(err)
	}
	if want := `<p>TEXTBLOCK-MARKER <a href="/u/a">@a</a></p>`; out != want {
		t.Errorf("got %q want %q", out, want)
	}
}

func TestSlabs_MarkdownMentioningMarker(t *testing.T) {
	e := textblock.New(nil)
	e.Registry().RegisterEnhancement("img", textblock.EnhancementFuncs{
		ScanFunc: func(doc *goquery.Document, mark textblock.MarkFunc) error {
			doc.Find("img").Each(func(_ int, s *goquery.Selection) {
				s.ReplaceWithHtml(mark(map[string]any{"src": s.AttrOr("src", "")}))
			})
			return nil
		},
		ResolveFunc: func(_ context.Context, p *textblock.Placeholder) (string, error) {
			return "<figure>" + p.String("src") + "</figure>", nil
		},
	})
	b, err := e.Validate(&textblock.Markdown{Source: "The string TEXTBLOCK-MARKER is our sentinel.\n\n![x](https://e.com/a.png)"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := e.Render(context.Background(), b, "0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "The string TEXTBLOCK-MARKER is our sentinel.") {
		t.Errorf("user text lost: %s", out)
	}
	if !strings.Contains(out, "<figure>https://e.com/a.png</figure>") {
		t.Errorf("placeholder not resolved: %s", out)
	}
}

func TestSlabs_MarkEncodeError(t *testing.T) {
	e := textblock.New(&textblock.Config{Sanitizer: passthrough, Codec: textblock.MarkerCodec{Marker: "NODASH"}})
	e.Registry().RegisterEnhancement("user", userEnhancement())
	if _, err := e.Validate(&textblock.HTML{Source: `<span data-user="x">y</span>`}); err == nil {
		t.Error("expected an error for a marker without '-'")
	}
}

func TestSlabs_ScannerError(t *testing.T) {
	e := newPassthroughEngine(t)
	boom := errors.New("boom")
	e.Registry().RegisterEnhancement("bad", textblock.EnhancementFuncs{
		ScanFunc: func(*goquery.Document, textblock.MarkFunc) error { return boom },
	})
	_, err := e.Validate(textblock.NewSection(&textblock.HTML{Source: "<p>x</p>"}))
	if !errors.Is(err, textblock.ErrResolver) || !errors.Is(err, boom) {
		t.Fatalf("expected resolver error wrapping boom, got %v", err)
	}
	var re *textblock.ResolverError
	if !errors.As(err, &re) || re.Kind != "scan" || re.Name != "bad" || re.Path != "blocks[0]" {
		t.Errorf("unexpected resolver error %+v", re)
	}
}

func TestSlabs_SanitizedBeforeScan(t *testing.T) {
	e := textblock.New(nil)
	e.Registry().RegisterEnhancement("user", userEnhancement())
	// The default policy drops data attributes, so nothing is marked.
	b, err := e.Validate(&textblock.HTML{Source: `<span data-user="bob" onclick="x()">bob</span>`})
	if err != nil {
		t.Fatal(err)
	}
	slabs := b.(*textblock.HTML).Slabs
	if len(slabs.Placeholders()) != 0 {
		t.Errorf("scanner saw unsanitized attributes: %+v", slabs)
	}
	if strings.Contains(slabs.Literal(), "onclick") {
		t.Errorf("onclick survived: %s", slabs.Literal())
	}
}
