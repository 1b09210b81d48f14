package textblock

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// FormatATXPlainText is an input-only format: plain text with ATX
// ("# Heading") headings, split into a section of html blocks.
const FormatATXPlainText = "atxplaintext"

var inputFormats = []string{FormatATXPlainText, FormatHTML, FormatMarkdown, FormatPlainishText}

// InputFormats lists the formats accepted by MakeBlock, sorted.
func InputFormats() []string {
	return append([]string(nil), inputFormats...)
}

// MakeBlock builds an unvalidated block from source in the given input
// format. Pass the result to Engine.Validate before rendering it.
func MakeBlock(source, format string) (Block, error) {
	switch format {
	case FormatHTML:
		return &HTML{Source: source}, nil
	case FormatMarkdown:
		return &Markdown{Source: source}, nil
	case FormatPlainishText:
		return &PlainishText{Source: source}, nil
	case FormatATXPlainText:
		return ATXSection(source), nil
	}
	return nil, errorf("make", format, "", ErrInvalidFormat, "invalid input format %q", format)
}

// Paragraphs escapes text for literal embedding and wraps each
// blank-line-separated segment in <p>.
func Paragraphs(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n\n", "</p>\n<p>") + "</p>"
}

var atxHeading = regexp.MustCompile(`(?m)^(#{1,6})[ \t]*(.+?)[ \t]*#*[ \t]*$\n*`)

// ATXSection splits text at ATX headings. Each heading and the text up to
// the next heading become one html block; text before the first heading
// becomes a leading block of paragraphs.
func ATXSection(text string) *Section {
	s := &Section{}
	matches := atxHeading.FindAllStringSubmatchIndex(text, -1)

	body := func(from, to int) string {
		if strings.TrimSpace(text[from:to]) == "" {
			return ""
		}
		return Paragraphs(text[from:to])
	}

	end := len(text)
	if len(matches) > 0 {
		end = matches[0][0]
	}
	if p := body(0, end); p != "" {
		s.Blocks = append(s.Blocks, &HTML{Source: p})
	}

	for i, m := range matches {
		level := strconv.Itoa(m[3] - m[2])
		title := html.EscapeString(text[m[4]:m[5]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		src := "<h" + level + ">" + title + "</h" + level + ">" + body(m[1], end)
		s.Blocks = append(s.Blocks, &HTML{Source: src})
	}
	return s
}
