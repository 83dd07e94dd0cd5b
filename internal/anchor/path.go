package anchor

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Two path forms are produced and understood:
//
//	//*[@id="sidebar"]        id shortcut, when the container has an id
//	/html[1]/body[1]/p[3]     positional steps from the document root
//
// The id shortcut is preferred because it survives sibling reordering; the
// positional form counts only preceding siblings with the same tag name, so
// a step index is 1-based within its tag.

const idPathPrefix = `//*[@id="`

// elementID returns the element's id attribute, or "".
func elementID(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == "id" {
			return a.Val
		}
	}
	return ""
}

// buildPath encodes the location of an element as a path string. Elements
// whose id contains a double quote fall back to the positional form so the
// shortcut never needs escaping.
func buildPath(el *html.Node) (string, error) {
	if el == nil || el.Type != html.ElementNode {
		return "", fmt.Errorf("path target is not an element")
	}

	if id := elementID(el); id != "" && !strings.Contains(id, `"`) {
		return idPathPrefix + id + `"]`, nil
	}

	var steps []string
	for n := el; n != nil && n.Type == html.ElementNode; n = n.Parent {
		pos := 1
		for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == n.Data {
				pos++
			}
		}
		steps = append(steps, fmt.Sprintf("%s[%d]", n.Data, pos))
	}

	// steps were collected bottom-up
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return "/" + strings.Join(steps, "/"), nil
}

// resolvePath locates the element a path refers to in the current document.
// Returns nil when any step is missing or when an id shortcut is ambiguous
// (the id appears on more than one element); resolution never guesses.
func resolvePath(doc *html.Node, path string) *html.Node {
	if doc == nil || path == "" {
		return nil
	}

	if strings.HasPrefix(path, idPathPrefix) && strings.HasSuffix(path, `"]`) {
		id := path[len(idPathPrefix) : len(path)-2]
		return findUniqueID(doc, id)
	}

	if !strings.HasPrefix(path, "/") {
		return nil
	}

	cur := doc
	for _, step := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		tag, pos, ok := parseStep(step)
		if !ok {
			return nil
		}
		next := nthChildElement(cur, tag, pos)
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// parseStep splits "p[3]" into ("p", 3).
func parseStep(step string) (tag string, pos int, ok bool) {
	open := strings.IndexByte(step, '[')
	if open <= 0 || !strings.HasSuffix(step, "]") {
		return "", 0, false
	}
	n, err := strconv.Atoi(step[open+1 : len(step)-1])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return step[:open], n, true
}

// nthChildElement returns the pos-th child element of parent with the given
// tag name, counting from 1.
func nthChildElement(parent *html.Node, tag string, pos int) *html.Node {
	count := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			count++
			if count == pos {
				return c
			}
		}
	}
	return nil
}

// findUniqueID returns the single element carrying the id, or nil when the
// id is absent or duplicated.
func findUniqueID(doc *html.Node, id string) *html.Node {
	var match *html.Node
	dup := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if dup {
			return
		}
		if n.Type == html.ElementNode && elementID(n) == id {
			if match != nil {
				dup = true
				return
			}
			match = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if dup {
		return nil
	}
	return match
}
