package model

// Color is a presentation tag from the fixed highlight palette.
// It doubles as a filter key when listing highlights.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
)

// Palette lists every valid color in display order.
var Palette = []Color{ColorYellow, ColorGreen, ColorPink, ColorBlue, ColorPurple}

// ValidColor reports whether c is part of the palette.
func ValidColor(c Color) bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// ContextCap is the maximum stored length of an anchor's prefix and suffix.
const ContextCap = 50

// Anchor is a durable locator for a text span inside a document.
// It is write-once: created when the highlight is created, never mutated,
// only re-resolved against the live document during restoration.
type Anchor struct {
	// XPath identifies the containing element. Two forms are produced:
	// an id shortcut (//*[@id="..."]) when the element carries one, or a
	// positional path of sibling-indexed tag steps (/html[1]/body[1]/p[2]).
	XPath string `json:"xpath"`

	// StartOffset and EndOffset are character offsets into the container's
	// text content at encode time. During recovery they are a hint only;
	// relocation is driven by TextContent and the context checkpoints.
	StartOffset int `json:"startOffset"`
	EndOffset   int `json:"endOffset"`

	// Prefix and Suffix are the text immediately around the span, capped
	// at ContextCap characters each, used to reject accidental matches.
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`

	// TextContent is the exact highlighted text, captured verbatim.
	// Recovery does literal substring search, so case and whitespace matter.
	TextContent string `json:"textContent"`
}

// Highlight is one user-visible annotation on a page.
type Highlight struct {
	ID        string `json:"id"`
	Text      string `json:"text"` // always equals Anchor.TextContent
	Color     Color  `json:"color"`
	Note      string `json:"note"`
	Timestamp int64  `json:"timestamp"` // creation time, epoch milliseconds
	Anchor    Anchor `json:"anchor"`
}

// Validate checks that a stored or imported highlight carries the fields
// restoration depends on. Records failing validation are skipped, never fatal.
func (h *Highlight) Validate() error {
	if h.ID == "" {
		return ErrMissingField("id")
	}
	if h.Text == "" {
		return ErrMissingField("text")
	}
	if h.Anchor.XPath == "" {
		return ErrMissingField("anchor.xpath")
	}
	if h.Anchor.TextContent == "" {
		return ErrMissingField("anchor.textContent")
	}
	if h.Anchor.StartOffset < 0 || h.Anchor.EndOffset < h.Anchor.StartOffset {
		return ErrBadOffsets
	}
	if !ValidColor(h.Color) {
		return ErrBadColor(string(h.Color))
	}
	return nil
}

// Settings holds the small per-user preference record stored alongside
// the highlight lists.
type Settings struct {
	LastColor Color `json:"lastColor"`
	UseSync   bool  `json:"useSync"`
}

// DefaultSettings returns the settings used before the user has made any choice.
func DefaultSettings() Settings {
	return Settings{LastColor: ColorYellow}
}

// Archive is the full persisted structure: every page's highlight list plus
// the settings record. It is the unit of import/export and sync.
type Archive struct {
	Pages    map[string][]Highlight `json:"pages"`
	Settings Settings               `json:"settings"`
}
