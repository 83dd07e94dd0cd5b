package main

import (
	"strings"
	"testing"
	"time"

	"holdfast/internal/model"
)

func TestHighlightLine(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	h := model.Highlight{
		ID:        "abc123-def0",
		Text:      "hello world",
		Color:     model.ColorGreen,
		Timestamp: ts.UnixMilli(),
	}

	got := highlightLine(h)
	if !strings.Contains(got, "2024-01-15 10:30:00") {
		t.Errorf("epoch-ms timestamp not rendered as UTC wall time: %q", got)
	}
	if !strings.Contains(got, `"hello world"`) || !strings.Contains(got, "abc123-def0") {
		t.Errorf("line = %q", got)
	}
	if strings.Contains(got, "note:") {
		t.Errorf("empty note should not be shown: %q", got)
	}

	h.Note = "say hi"
	if got := highlightLine(h); !strings.HasSuffix(got, "  note: say hi") {
		t.Errorf("line with note = %q", got)
	}
}
