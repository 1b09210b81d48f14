package textblock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/njchilds90/textblock"
)

func TestInputFormats(t *testing.T) {
	want := []string{"atxplaintext", "html", "markdown", "plainishtext"}
	if diff := cmp.Diff(want, textblock.InputFormats()); diff != "" {
		t.Errorf("InputFormats() mismatch (-want +got):\n%s", diff)
	}
}

func TestMakeBlock(t *testing.T) {
	for _, format := range []string{"html", "markdown", "plainishtext"} {
		b, err := textblock.MakeBlock("src", format)
		if err != nil {
			t.Fatal(err)
		}
		if b.Format() != format {
			t.Errorf("MakeBlock(%q) returned %s block", format, b.Format())
		}
	}
	if _, err := textblock.MakeBlock("src", "rtf"); !errors.Is(err, textblock.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestParagraphs(t *testing.T) {
	if got, want := textblock.Paragraphs("&blah\n\nblah"), "<p>&amp;blah</p>\n<p>blah</p>"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestATXSection(t *testing.T) {
	got := textblock.ATXSection("# head\n\nblah\nblah bla#h\n# head2  ##\nblah2\n# head3\n## head4")
	want := textblock.NewSection(
		&textblock.HTML{Source: "<h1>head</h1><p>blah\nblah bla#h\n</p>"},
		&textblock.HTML{Source: "<h1>head2</h1><p>blah2\n</p>"},
		&textblock.HTML{Source: "<h1>head3</h1>"},
		&textblock.HTML{Source: "<h2>head4</h2>"},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ATXSection() mismatch (-want +got):\n%s", diff)
	}
}

func TestATXSection_Preamble(t *testing.T) {
	got := textblock.ATXSection("intro & more\n# A <b>\ntext")
	want := textblock.NewSection(
		&textblock.HTML{Source: "<p>intro &amp; more\n</p>"},
		&textblock.HTML{Source: "<h1>A &lt;b&gt;</h1><p>text</p>"},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ATXSection() mismatch (-want +got):\n%s", diff)
	}
}

func TestATXSection_Renders(t *testing.T) {
	e := textblock.New(nil)
	b, err := textblock.MakeBlock("# Title\n\nsome text", textblock.FormatATXPlainText)
	if err != nil {
		t.Fatal(err)
	}
	valid, err := e.Validate(b)
	if err != nil {
		t.Fatal(err)
	}
	out, err := e.Render(context.Background(), valid, "0")
	if err != nil {
		t.Fatal(err)
	}
	if want := "<h1>Title</h1><p>some text</p>"; out != want {
		t.Errorf("got %q want %q", out, want)
	}
}
