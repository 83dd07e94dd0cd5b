package anchor

import (
	"errors"
	"strings"

	"holdfast/internal/model"
)

// ErrEmptySelection is returned by Encode when the range covers no text
// after trimming surrounding whitespace.
var ErrEmptySelection = errors.New("selection is empty")

// Encode captures a live range as a durable anchor. The anchor records the
// container's structural path, the span's offsets within the container's
// text, up to 50 characters of surrounding context on each side, and the
// selected text verbatim. Deterministic for identical document and range.
func Encode(r Range) (*model.Anchor, error) {
	raw := r.Text()
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptySelection
	}

	container := r.Container()
	if container == nil {
		return nil, ErrEmptySelection
	}

	path, err := buildPath(container)
	if err != nil {
		return nil, err
	}

	start := textOffset(container, r.Start)
	if start < 0 {
		return nil, errors.New("range start is outside its container")
	}
	// Trimming may have moved the span's edges inward.
	start += strings.Index(raw, text)
	end := start + len(text)

	containerText := textContent(container)
	return &model.Anchor{
		XPath:       path,
		StartOffset: start,
		EndOffset:   end,
		Prefix:      tail(containerText[:clamp(start, len(containerText))], model.ContextCap),
		Suffix:      head(containerText[clamp(end, len(containerText)):], model.ContextCap),
		TextContent: text,
	}, nil
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

// tail returns at most n trailing bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// head returns at most n leading bytes of s.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
