package engine

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"holdfast/internal/anchor"
	"holdfast/internal/model"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func render(t *testing.T, doc *html.Node) string {
	t.Helper()
	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func TestWrapRange(t *testing.T) {
	h := &model.Highlight{ID: "m1", Color: model.ColorYellow}

	t.Run("wraps middle of a text node", func(t *testing.T) {
		doc := parse(t, `<html><body><p>say hello world today</p></body></html>`)
		r := anchor.FindText(doc, "hello world", 1)

		mark, err := wrapRange(*r, h)
		if err != nil {
			t.Fatalf("wrapRange() error = %v", err)
		}
		if markerID(mark) != "m1" {
			t.Errorf("marker id = %q", markerID(mark))
		}
		out := render(t, doc)
		want := `<p>say <mark data-holdfast-id="m1" class="holdfast holdfast-yellow">hello world</mark> today</p>`
		if !strings.Contains(out, want) {
			t.Errorf("rendered = %s, want fragment %s", out, want)
		}
	})

	t.Run("wraps entire text node without empty siblings", func(t *testing.T) {
		doc := parse(t, `<html><body><p>whole</p></body></html>`)
		r := anchor.FindText(doc, "whole", 1)

		if _, err := wrapRange(*r, h); err != nil {
			t.Fatalf("wrapRange() error = %v", err)
		}
		if !strings.Contains(render(t, doc), `<p><mark`) {
			t.Error("expected marker as the paragraph's only child")
		}
	})

	t.Run("fails across text node boundaries", func(t *testing.T) {
		doc := parse(t, `<html><body><p>one <b>two</b> three</p></body></html>`)
		start := anchor.FindText(doc, "one", 1)
		end := anchor.FindText(doc, "three", 1)
		r := anchor.Range{Start: start.Start, End: end.End}

		if _, err := wrapRange(r, h); !errors.Is(err, ErrWrapFailure) {
			t.Fatalf("wrapRange() error = %v, want ErrWrapFailure", err)
		}
		// The document is untouched on failure.
		if strings.Contains(render(t, doc), "<mark") {
			t.Error("failed wrap mutated the document")
		}
	})

	t.Run("fails on collapsed range", func(t *testing.T) {
		doc := parse(t, `<html><body><p>text</p></body></html>`)
		r := anchor.FindText(doc, "text", 1)
		collapsed := anchor.Range{Start: r.Start, End: r.Start}

		if _, err := wrapRange(collapsed, h); !errors.Is(err, ErrWrapFailure) {
			t.Errorf("wrapRange() error = %v, want ErrWrapFailure", err)
		}
	})
}

func TestUnwrapMarker(t *testing.T) {
	h := &model.Highlight{ID: "m1", Color: model.ColorYellow}
	doc := parse(t, `<html><body><p>say hello world today</p></body></html>`)
	r := anchor.FindText(doc, "hello world", 1)

	mark, err := wrapRange(*r, h)
	if err != nil {
		t.Fatalf("wrapRange() error = %v", err)
	}
	unwrapMarker(mark)

	out := render(t, doc)
	if !strings.Contains(out, `<p>say hello world today</p>`) {
		t.Errorf("rendered = %s, want original paragraph", out)
	}

	// Adjacent text nodes were merged back into one.
	merged := anchor.FindText(doc, "say hello world today", 1)
	if merged == nil {
		t.Error("text nodes were not merged after unwrap")
	}
}

func TestInsideMarker(t *testing.T) {
	h := &model.Highlight{ID: "m1", Color: model.ColorYellow}
	doc := parse(t, `<html><body><p>say hello world today</p><p>other</p></body></html>`)

	if _, err := wrapRange(*anchor.FindText(doc, "hello world", 1), h); err != nil {
		t.Fatal(err)
	}

	if !insideMarker(*anchor.FindText(doc, "hello", 1)) {
		t.Error("range inside marker not detected")
	}
	if insideMarker(*anchor.FindText(doc, "other", 1)) {
		t.Error("range outside marker misdetected")
	}
}
