// Package anchor encodes a text range inside a parsed HTML document into a
// durable, serializable locator and resolves such a locator back to a live
// range in a possibly mutated document. It is pure: no state, no I/O, and
// deterministic for a given document and range.
package anchor

import (
	"strings"

	"golang.org/x/net/html"
)

// Point addresses a position inside a document: a byte offset into a text
// node's data, or a child position when Node is an element.
type Point struct {
	Node   *html.Node
	Offset int
}

// Range is a live span between two points in the same document. Ranges are
// never held across document mutations; callers re-resolve through the
// stored anchor instead.
type Range struct {
	Start Point
	End   Point
}

// Collapsed reports whether the range spans no content.
func (r Range) Collapsed() bool {
	return r.Start.Node == r.End.Node && r.Start.Offset == r.End.Offset
}

// Text returns the raw text covered by the range. For a range inside a
// single text node this is a slice of that node's data; a range spanning
// several text nodes concatenates them in document order.
func (r Range) Text() string {
	if r.Start.Node == nil || r.End.Node == nil {
		return ""
	}
	if r.Start.Node == r.End.Node && r.Start.Node.Type == html.TextNode {
		data := r.Start.Node.Data
		if r.Start.Offset < 0 || r.End.Offset > len(data) || r.Start.Offset > r.End.Offset {
			return ""
		}
		return data[r.Start.Offset:r.End.Offset]
	}

	var b strings.Builder
	started := false
	walkTextNodes(commonRoot(r.Start.Node, r.End.Node), func(tn *html.Node) bool {
		if tn == r.Start.Node {
			started = true
			if tn == r.End.Node {
				b.WriteString(tn.Data[r.Start.Offset:r.End.Offset])
				return false
			}
			b.WriteString(tn.Data[r.Start.Offset:])
			return true
		}
		if !started {
			return true
		}
		if tn == r.End.Node {
			b.WriteString(tn.Data[:r.End.Offset])
			return false
		}
		b.WriteString(tn.Data)
		return true
	})
	return b.String()
}

// Container returns the element whose text content holds the range: the
// parent of a text start node, or the start node itself when it is already
// an element.
func (r Range) Container() *html.Node {
	n := r.Start.Node
	if n == nil {
		return nil
	}
	if n.Type == html.TextNode {
		return n.Parent
	}
	return n
}

// skippedElements are elements whose text children are never visible page
// text and therefore never anchor targets.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// walkTextNodes visits every text node under n in document order, skipping
// non-rendered subtrees. The visit function returns false to stop the walk.
func walkTextNodes(n *html.Node, visit func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	if n.Type == html.ElementNode && skippedElements[n.Data] {
		return true
	}
	if n.Type == html.TextNode {
		return visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walkTextNodes(c, visit) {
			return false
		}
	}
	return true
}

// textContent returns the concatenated visible text under n, the same view
// of the container that offsets and context snippets are measured against.
func textContent(n *html.Node) string {
	var b strings.Builder
	walkTextNodes(n, func(tn *html.Node) bool {
		b.WriteString(tn.Data)
		return true
	})
	return b.String()
}

// textOffset returns the offset of point p within textContent(container),
// or -1 when p does not lie under container.
func textOffset(container *html.Node, p Point) int {
	if p.Node == nil {
		return -1
	}
	if p.Node.Type == html.ElementNode {
		// An element point addresses a child position. Element points only
		// occur when the range starts at the container itself, so the text
		// offset is the length of the text in the children before it.
		if p.Node != container {
			return -1
		}
		off := 0
		i := 0
		for c := p.Node.FirstChild; c != nil && i < p.Offset; c, i = c.NextSibling, i+1 {
			off += len(textContent(c))
		}
		return off
	}

	total := 0
	found := -1
	walkTextNodes(container, func(tn *html.Node) bool {
		if tn == p.Node {
			found = total + p.Offset
			return false
		}
		total += len(tn.Data)
		return true
	})
	return found
}

// commonRoot returns the closest node containing both a and b.
func commonRoot(a, b *html.Node) *html.Node {
	seen := map[*html.Node]bool{}
	for n := a; n != nil; n = n.Parent {
		seen[n] = true
	}
	for n := b; n != nil; n = n.Parent {
		if seen[n] {
			return n
		}
	}
	return nil
}

// FindText locates the nth occurrence (1-based) of the literal text inside a
// single text node under root, in document order, and returns it as a range.
// Returns nil when there are fewer than n occurrences. This is how callers
// without a live browser selection build a range to highlight.
func FindText(root *html.Node, text string, n int) *Range {
	if text == "" || n < 1 {
		return nil
	}
	var found *Range
	remaining := n
	walkTextNodes(root, func(tn *html.Node) bool {
		from := 0
		for {
			i := strings.Index(tn.Data[from:], text)
			if i < 0 {
				return true
			}
			idx := from + i
			remaining--
			if remaining == 0 {
				found = &Range{
					Start: Point{Node: tn, Offset: idx},
					End:   Point{Node: tn, Offset: idx + len(text)},
				}
				return false
			}
			from = idx + len(text)
		}
	})
	return found
}
