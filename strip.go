package textblock

import "github.com/PuerkitoBio/goquery"

// Stripper reduces HTML to plain text.
type Stripper interface {
	Strip(html string) string
}

// StripperFunc adapts a function to Stripper.
type StripperFunc func(html string) string

func (f StripperFunc) Strip(html string) string { return f(html) }

// StripTags returns the text content of an HTML fragment. The fragment is
// parsed as body content, so entities come back decoded and comments are
// left out.
func StripTags(fragment string) (string, error) {
	root, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}
	return goquery.NewDocumentFromNode(root).Text(), nil
}

func stripTags(fragment string) string {
	text, err := StripTags(fragment)
	if err != nil {
		return ""
	}
	return text
}
