package testutil

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"holdfast/internal/anchor"
)

// ParseDoc parses an HTML fragment into a document tree.
func ParseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parsing fixture HTML: %v", err)
	}
	return doc
}

// FindText locates the first occurrence of text in doc and fails the test
// when it is absent.
func FindText(t *testing.T, doc *html.Node, text string) anchor.Range {
	t.Helper()
	r := anchor.FindText(doc, text, 1)
	if r == nil {
		t.Fatalf("text %q not found in fixture", text)
	}
	return *r
}

// RenderDoc serializes a document back to HTML.
func RenderDoc(t *testing.T, doc *html.Node) string {
	t.Helper()
	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		t.Fatalf("rendering document: %v", err)
	}
	return b.String()
}
