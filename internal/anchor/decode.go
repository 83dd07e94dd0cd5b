package anchor

import (
	"strings"

	"golang.org/x/net/html"

	"holdfast/internal/model"
)

// checkpointLen is how much of the stored prefix/suffix is compared during
// recovery. Shorter than the stored 50 so that minor edits near the span do
// not defeat relocation.
const checkpointLen = 20

// Decode resolves an anchor against the current document and returns the
// recovered range, or nil when the anchor cannot be relocated. Recovery is
// best-effort and never returns an error: a missing highlight is skipped,
// not fatal.
//
// The stored offsets are not used for relocation; the span is found by
// literal substring search over the container's text nodes, gated by the
// prefix/suffix checkpoints. The returned range is measured against the
// found node, which is what tolerates drift in the surrounding markup.
func Decode(doc *html.Node, a *model.Anchor) *Range {
	if doc == nil || a == nil || a.TextContent == "" {
		return nil
	}

	container := resolvePath(doc, a.XPath)
	if container == nil {
		return nil
	}

	var found *Range
	walkTextNodes(container, func(tn *html.Node) bool {
		idx := strings.Index(tn.Data, a.TextContent)
		for idx >= 0 {
			if checkpointsPass(tn.Data, idx, idx+len(a.TextContent), a) {
				found = &Range{
					Start: Point{Node: tn, Offset: idx},
					End:   Point{Node: tn, Offset: idx + len(a.TextContent)},
				}
				return false
			}
			next := strings.Index(tn.Data[idx+1:], a.TextContent)
			if next < 0 {
				break
			}
			idx += 1 + next
		}
		return true
	})
	return found
}

// checkpointsPass accepts a candidate occurrence when its surrounding text
// overlaps the stored context on at least one side. Requiring only one side
// tolerates insertions or deletions elsewhere in the container while still
// rejecting unrelated text that happens to contain the same substring.
func checkpointsPass(data string, start, end int, a *model.Anchor) bool {
	storedPrefix := tail(a.Prefix, checkpointLen)
	storedSuffix := head(a.Suffix, checkpointLen)
	if storedPrefix == "" && storedSuffix == "" {
		// Nothing to verify against; the first occurrence wins.
		return true
	}

	foundPrefix := tail(data[:start], checkpointLen)
	foundSuffix := head(data[end:], checkpointLen)
	return contextOverlap(storedPrefix, foundPrefix) || contextOverlap(storedSuffix, foundSuffix)
}

// contextOverlap is a containment check rather than exact equality: either
// string containing the other counts as a match. An empty stored side always
// passes (there was no context to begin with); an empty found side never
// passes against non-empty stored context, leaving the decision to the
// other checkpoint.
func contextOverlap(stored, found string) bool {
	if stored == "" {
		return true
	}
	if found == "" {
		return false
	}
	return strings.Contains(stored, found) || strings.Contains(found, stored)
}
