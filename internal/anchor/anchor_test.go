package anchor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// parseDoc parses an HTML fragment into a full document tree.
func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

// mustFind locates the first occurrence of text and fails the test if absent.
func mustFind(t *testing.T, doc *html.Node, text string) *Range {
	t.Helper()
	r := FindText(doc, text, 1)
	require.NotNil(t, r, "text %q not found in document", text)
	return r
}

func TestEncode_PositionalPath(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>first</p><p>You could say hello world today maybe</p></body></html>`)
	r := mustFind(t, doc, "hello world")

	a, err := Encode(*r)
	require.NoError(t, err)

	assert.Equal(t, "/html[1]/body[1]/p[2]", a.XPath)
	assert.Equal(t, "hello world", a.TextContent)
	assert.Equal(t, "You could say ", a.Prefix)
	assert.Equal(t, " today maybe", a.Suffix)
	assert.Equal(t, 14, a.StartOffset)
	assert.Equal(t, 25, a.EndOffset)
}

func TestEncode_IDShortcut(t *testing.T) {
	doc := parseDoc(t, `<html><body><div id="main"><p>say hello world today</p></div></body></html>`)
	r := mustFind(t, doc, "hello world")

	a, err := Encode(*r)
	require.NoError(t, err)

	// The container is the <p>, which has no id; its parent does but the
	// path addresses the container itself.
	assert.Equal(t, `/html[1]/body[1]/div[1]/p[1]`, a.XPath)
}

func TestEncode_IDOnContainer(t *testing.T) {
	doc := parseDoc(t, `<html><body><p id="intro">say hello world today</p></body></html>`)
	r := mustFind(t, doc, "hello world")

	a, err := Encode(*r)
	require.NoError(t, err)
	assert.Equal(t, `//*[@id="intro"]`, a.XPath)
}

func TestEncode_TrimsSelection(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>before  padded  after</p></body></html>`)
	r := mustFind(t, doc, " padded ")

	a, err := Encode(*r)
	require.NoError(t, err)
	assert.Equal(t, "padded", a.TextContent)
	assert.Equal(t, "before  ", a.Prefix)
	assert.Equal(t, "  after", a.Suffix)
}

func TestEncode_EmptySelection(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>a   b</p></body></html>`)
	r := mustFind(t, doc, "   ")

	_, err := Encode(*r)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestEncode_ContextCap(t *testing.T) {
	long := strings.Repeat("x", 80)
	doc := parseDoc(t, `<html><body><p>`+long+`TARGET`+long+`</p></body></html>`)
	r := mustFind(t, doc, "TARGET")

	a, err := Encode(*r)
	require.NoError(t, err)
	assert.Len(t, a.Prefix, 50)
	assert.Len(t, a.Suffix, 50)
}

func TestDecode_RoundTrip(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>You could say hello world today</p></body></html>`)
	r := mustFind(t, doc, "hello world")

	a, err := Encode(*r)
	require.NoError(t, err)

	got := Decode(doc, a)
	require.NotNil(t, got)
	assert.Equal(t, "hello world", got.Text())
}

func TestDecode_RoundTripWithID(t *testing.T) {
	doc := parseDoc(t, `<html><body><p id="x">say hello world today</p></body></html>`)
	r := mustFind(t, doc, "hello world")

	a, err := Encode(*r)
	require.NoError(t, err)

	got := Decode(doc, a)
	require.NotNil(t, got)
	assert.Equal(t, "hello world", got.Text())
}

func TestDecode_DriftTolerance(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>intro</p><p>say hello world today</p></body></html>`)
	r := FindText(doc, "hello world", 1)
	require.NotNil(t, r)

	a, err := Encode(*r)
	require.NoError(t, err)

	// Unrelated drift: a div injected after the container and extra words
	// inside the container ahead of the span. The path still resolves and
	// the prefix checkpoint overlaps.
	drifted := parseDoc(t, `<html><body><p>intro</p><p>freshly inserted words say hello world today</p><div>ads</div></body></html>`)
	got := Decode(drifted, a)
	require.NotNil(t, got)
	assert.Equal(t, "hello world", got.Text())
}

func TestDecode_DriftToleranceWithID(t *testing.T) {
	doc := parseDoc(t, `<html><body><p id="k">say hello world today</p></body></html>`)
	a, err := Encode(*mustFind(t, doc, "hello world"))
	require.NoError(t, err)

	// The id shortcut survives the container moving entirely.
	moved := parseDoc(t, `<html><body><div><section><p id="k">say hello world today</p></section></div></body></html>`)
	got := Decode(moved, a)
	require.NotNil(t, got)
	assert.Equal(t, "hello world", got.Text())
}

func TestDecode_RejectsForeignContext(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>You could say hello world today</p></body></html>`)
	a, err := Encode(*mustFind(t, doc, "hello world"))
	require.NoError(t, err)

	// Same substring, completely different context in the resolved container.
	changed := parseDoc(t, `<html><body><p>stock ticker hello world index fund report</p></body></html>`)
	assert.Nil(t, Decode(changed, a))
}

func TestDecode_PathResolutionFails(t *testing.T) {
	doc := parseDoc(t, `<html><body><div><p>say hello world today</p></div></body></html>`)
	a, err := Encode(*mustFind(t, doc, "hello world"))
	require.NoError(t, err)

	// Container deleted entirely; the same text elsewhere must not be guessed.
	deleted := parseDoc(t, `<html><body><span>say hello world today</span></body></html>`)
	assert.Nil(t, Decode(deleted, a))
}

func TestDecode_AmbiguousID(t *testing.T) {
	doc := parseDoc(t, `<html><body><p id="dup">say hello world today</p></body></html>`)
	a, err := Encode(*mustFind(t, doc, "hello world"))
	require.NoError(t, err)

	dup := parseDoc(t, `<html><body><p id="dup">say hello world today</p><p id="dup">say hello world today</p></body></html>`)
	assert.Nil(t, Decode(dup, a))
}

func TestDecode_MissingAnchorFields(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>text</p></body></html>`)
	assert.Nil(t, Decode(doc, nil))
}

func TestFindText_Occurrences(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>cat dog cat</p><p>cat</p></body></html>`)

	first := FindText(doc, "cat", 1)
	require.NotNil(t, first)
	assert.Equal(t, 0, first.Start.Offset)

	second := FindText(doc, "cat", 2)
	require.NotNil(t, second)
	assert.Equal(t, 8, second.Start.Offset)

	third := FindText(doc, "cat", 3)
	require.NotNil(t, third)
	assert.NotSame(t, second.Start.Node, third.Start.Node)

	assert.Nil(t, FindText(doc, "cat", 4))
	assert.Nil(t, FindText(doc, "missing", 1))
}

func TestFindText_SkipsScript(t *testing.T) {
	doc := parseDoc(t, `<html><body><script>var x = "cat";</script><p>cat</p></body></html>`)
	r := FindText(doc, "cat", 1)
	require.NotNil(t, r)
	assert.Equal(t, "p", r.Container().Data)
}

func TestResolvePath_Forms(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>a</p><div id="menu"><p>b</p></div><p>c</p></body></html>`)

	t.Run("positional counts same-tag siblings only", func(t *testing.T) {
		n := resolvePath(doc, "/html[1]/body[1]/p[2]")
		require.NotNil(t, n)
		assert.Equal(t, "c", textContent(n))
	})

	t.Run("id shortcut", func(t *testing.T) {
		n := resolvePath(doc, `//*[@id="menu"]`)
		require.NotNil(t, n)
		assert.Equal(t, "div", n.Data)
	})

	t.Run("missing step", func(t *testing.T) {
		assert.Nil(t, resolvePath(doc, "/html[1]/body[1]/p[9]"))
	})

	t.Run("malformed", func(t *testing.T) {
		assert.Nil(t, resolvePath(doc, "body/p"))
		assert.Nil(t, resolvePath(doc, "/html[0]"))
		assert.Nil(t, resolvePath(doc, ""))
	})
}
