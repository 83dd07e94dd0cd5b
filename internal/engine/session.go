// Package engine owns the in-memory highlight state for one loaded document.
// A Session is constructed per document load and discarded on navigation;
// it orchestrates selection capture, anchor creation, marker insertion and
// removal, and restoration of stored highlights against the live tree.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"holdfast/internal/anchor"
	"holdfast/internal/model"
)

// State tracks a session's lifecycle. A session stays Ready even when
// individual restorations fail; partial success is the normal case.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrNotInitialized is returned by mutating operations before Initialize.
var ErrNotInitialized = errors.New("session not initialized")

// ErrOverlap rejects creating a highlight over text already inside a marker.
var ErrOverlap = errors.New("selection overlaps an existing highlight")

// Session is the highlight engine for a single document. All methods run on
// the caller's goroutine; operations on the same document are sequential by
// contract, matching the single event dispatcher that drives them.
type Session struct {
	pageKey string
	doc     *html.Node
	store   Store
	logger  Logger
	clock   Clock
	idgen   IDGenerator

	state      State
	highlights []model.Highlight
	settings   model.Settings
	markers    map[string]*html.Node // highlight id -> live marker element
}

// NewSession creates a session for one parsed document identified by its
// normalized page URL. The caller initializes it before use and simply
// drops it on navigation; there is no teardown to run.
func NewSession(pageKey string, doc *html.Node, store Store, logger Logger, clock Clock, idgen IDGenerator) *Session {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if idgen == nil {
		idgen = TimestampIDGenerator{Clock: clock}
	}
	return &Session{
		pageKey: pageKey,
		doc:     doc,
		store:   store,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
		markers: map[string]*html.Node{},
	}
}

// Initialize loads the user settings and the page's stored highlight list
// and enters the Restoring state. Malformed stored records are dropped from
// the session with a warning; they are never a fatal condition.
func (s *Session) Initialize(ctx context.Context) error {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	s.settings = settings

	stored, err := s.store.Load(ctx, s.pageKey)
	if err != nil {
		return fmt.Errorf("loading highlights: %w", err)
	}

	s.highlights = s.highlights[:0]
	for _, h := range stored {
		if err := h.Validate(); err != nil {
			s.logger.Warn("dropping malformed record", "page", s.pageKey, "err", err)
			continue
		}
		s.highlights = append(s.highlights, h)
	}

	s.state = StateRestoring
	return nil
}

// Restore re-resolves every stored highlight against the live document in
// stored order and wraps a marker around each recovered range. A highlight
// that cannot be relocated or wrapped is skipped for this session but stays
// in storage: a future version of the page may allow recovery again. The
// session is Ready afterwards regardless of individual outcomes.
func (s *Session) Restore() (restored, skipped int) {
	if s.state == StateUninitialized {
		return 0, 0
	}
	for i := range s.highlights {
		h := &s.highlights[i]
		r := anchor.Decode(s.doc, &h.Anchor)
		if r == nil {
			s.logger.Debug("highlight did not resolve", "id", h.ID, "page", s.pageKey)
			skipped++
			continue
		}
		mark, err := wrapRange(*r, h)
		if err != nil {
			s.logger.Debug("highlight could not be wrapped", "id", h.ID, "err", err)
			skipped++
			continue
		}
		s.markers[h.ID] = mark
		restored++
	}
	s.state = StateReady
	s.logger.Info("restore complete", "page", s.pageKey, "restored", restored, "skipped", skipped)
	return restored, skipped
}

// Create encodes the selection, wraps a marker around the original range,
// appends the new highlight and persists the full list. An empty color
// picks the last used color. The same range instance drives both encoding
// and insertion so the two never disagree about what was selected.
//
// Failure modes: an empty selection or overlapping selection leaves no
// state behind; a persistence failure is returned to the caller but the
// in-memory list keeps the new highlight (memory and store may diverge
// until the next successful write).
func (s *Session) Create(ctx context.Context, r anchor.Range, color model.Color) (*model.Highlight, error) {
	if s.state == StateUninitialized {
		return nil, ErrNotInitialized
	}
	if color == "" {
		color = s.settings.LastColor
	}
	if color == "" {
		color = model.ColorYellow
	}
	if !model.ValidColor(color) {
		return nil, model.ErrBadColor(string(color))
	}
	if insideMarker(r) {
		return nil, ErrOverlap
	}

	a, err := anchor.Encode(r)
	if err != nil {
		return nil, err
	}

	h := model.Highlight{
		ID:        s.uniqueID(),
		Text:      a.TextContent,
		Color:     color,
		Note:      "",
		Timestamp: s.clock.Now().UnixMilli(),
		Anchor:    *a,
	}

	mark, err := wrapRange(r, &h)
	if err != nil {
		return nil, err
	}
	s.markers[h.ID] = mark
	s.highlights = append(s.highlights, h)

	if err := s.store.Save(ctx, s.pageKey, s.highlights); err != nil {
		return &h, fmt.Errorf("persisting highlights: %w", err)
	}

	if s.settings.LastColor != color {
		s.settings.LastColor = color
		if err := s.store.SaveSettings(ctx, s.settings); err != nil {
			s.logger.Warn("saving last color failed", "err", err)
		}
	}
	return &h, nil
}

// EditNote replaces the note on an existing highlight and persists the
// list. A note has its own lifecycle: editing it never touches the anchor.
// No-op if the id is unknown.
func (s *Session) EditNote(ctx context.Context, id, note string) error {
	if s.state == StateUninitialized {
		return ErrNotInitialized
	}
	i := s.indexOf(id)
	if i < 0 {
		s.logger.Debug("edit note: id not found", "id", id)
		return nil
	}
	s.highlights[i].Note = note
	if mark, ok := s.markers[id]; ok {
		setMarkerAttr(mark, markerNoteAttr, note)
	}
	if err := s.store.Save(ctx, s.pageKey, s.highlights); err != nil {
		return fmt.Errorf("persisting highlights: %w", err)
	}
	return nil
}

// Remove unwraps the highlight's marker, splicing its children back into
// the parent, drops the highlight from the list and persists the reduced
// list. No-op if the id is unknown, so removing twice is safe.
func (s *Session) Remove(ctx context.Context, id string) error {
	if s.state == StateUninitialized {
		return ErrNotInitialized
	}
	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	if mark, ok := s.markers[id]; ok {
		unwrapMarker(mark)
		delete(s.markers, id)
	}
	s.highlights = append(s.highlights[:i], s.highlights[i+1:]...)
	if err := s.store.Save(ctx, s.pageKey, s.highlights); err != nil {
		return fmt.Errorf("persisting highlights: %w", err)
	}
	return nil
}

// RemoveAll unwraps every marker in the document, clears the list and
// persists an empty list for the page.
func (s *Session) RemoveAll(ctx context.Context) error {
	if s.state == StateUninitialized {
		return ErrNotInitialized
	}
	for id, mark := range s.markers {
		unwrapMarker(mark)
		delete(s.markers, id)
	}
	s.highlights = s.highlights[:0]
	if err := s.store.Save(ctx, s.pageKey, s.highlights); err != nil {
		return fmt.Errorf("persisting highlights: %w", err)
	}
	return nil
}

// List returns a copy of the current in-memory highlight list in insertion
// order.
func (s *Session) List() []model.Highlight {
	out := make([]model.Highlight, len(s.highlights))
	copy(out, s.highlights)
	return out
}

// Marker returns the live marker element bound to a highlight id, or nil
// when the highlight was not restored this session.
func (s *Session) Marker(id string) *html.Node {
	return s.markers[id]
}

// State returns the session's lifecycle state.
func (s *Session) State() State { return s.state }

// Doc returns the live document the session operates on.
func (s *Session) Doc() *html.Node { return s.doc }

// Settings returns the settings loaded at initialization, including any
// last-color update made since.
func (s *Session) Settings() model.Settings { return s.settings }

// Render serializes the session's document, markers included, as HTML.
func (s *Session) Render(w io.Writer) error {
	return html.Render(w, s.doc)
}

func (s *Session) indexOf(id string) int {
	for i := range s.highlights {
		if s.highlights[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueID draws ids until one does not collide with the current list.
func (s *Session) uniqueID() string {
	for {
		id := s.idgen.New()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}
