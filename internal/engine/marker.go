package engine

import (
	"errors"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"holdfast/internal/anchor"
	"holdfast/internal/model"
)

// Marker attribute and class names. The id attribute is how a DOM marker is
// bound back to its highlight record.
const (
	markerTag      = "mark"
	markerIDAttr   = "data-holdfast-id"
	markerNoteAttr = "data-note"
	markerClass    = "holdfast"
)

// ErrWrapFailure indicates a resolved range that cannot be cleanly wrapped,
// typically because it crosses element boundaries. The failure is local to
// one highlight and never corrupts surrounding markup.
var ErrWrapFailure = errors.New("range cannot be wrapped without splitting an element")

// wrapRange surrounds the range's content with a marker element without
// altering any surrounding text. Only ranges contained in a single text
// node can be wrapped; the text node is split into up to three parts with
// the middle part moved inside the new marker.
func wrapRange(r anchor.Range, h *model.Highlight) (*html.Node, error) {
	tn := r.Start.Node
	if tn == nil || tn != r.End.Node || tn.Type != html.TextNode {
		return nil, ErrWrapFailure
	}
	start, end := r.Start.Offset, r.End.Offset
	if start < 0 || end > len(tn.Data) || start >= end {
		return nil, ErrWrapFailure
	}
	parent := tn.Parent
	if parent == nil {
		return nil, ErrWrapFailure
	}

	mark := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Mark,
		Data:     markerTag,
		Attr: []html.Attribute{
			{Key: markerIDAttr, Val: h.ID},
			{Key: "class", Val: markerClass + " " + markerClass + "-" + string(h.Color)},
		},
	}
	if h.Note != "" {
		mark.Attr = append(mark.Attr, html.Attribute{Key: markerNoteAttr, Val: h.Note})
	}
	mark.AppendChild(&html.Node{Type: html.TextNode, Data: tn.Data[start:end]})

	before, after := tn.Data[:start], tn.Data[end:]
	next := tn.NextSibling
	parent.RemoveChild(tn)
	if before != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: before}, next)
	}
	parent.InsertBefore(mark, next)
	if after != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: after}, next)
	}
	return mark, nil
}

// unwrapMarker splices a marker's children back into its parent, preserving
// surrounding text and markup, then merges the text nodes left adjacent so
// a later highlight of the same region sees one contiguous node.
func unwrapMarker(mark *html.Node) {
	parent := mark.Parent
	if parent == nil {
		return
	}
	for mark.FirstChild != nil {
		c := mark.FirstChild
		mark.RemoveChild(c)
		parent.InsertBefore(c, mark)
	}
	parent.RemoveChild(mark)
	mergeTextChildren(parent)
}

// mergeTextChildren collapses runs of adjacent text-node children into one.
func mergeTextChildren(parent *html.Node) {
	c := parent.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode && next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			parent.RemoveChild(next)
			continue
		}
		c = next
	}
}

// setMarkerAttr sets or replaces an attribute on a marker element.
func setMarkerAttr(mark *html.Node, key, val string) {
	for i := range mark.Attr {
		if mark.Attr[i].Key == key {
			mark.Attr[i].Val = val
			return
		}
	}
	mark.Attr = append(mark.Attr, html.Attribute{Key: key, Val: val})
}

// insideMarker reports whether the range starts or ends inside an existing
// marker element.
func insideMarker(r anchor.Range) bool {
	for _, n := range []*html.Node{r.Start.Node, r.End.Node} {
		for p := n; p != nil; p = p.Parent {
			if p.Type == html.ElementNode && p.Data == markerTag && markerID(p) != "" {
				return true
			}
		}
	}
	return false
}

// markerID returns the highlight id bound to a marker element, or "".
func markerID(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == markerIDAttr {
			return a.Val
		}
	}
	return ""
}
