package store

import (
	"context"
	"sort"
	"sync"

	"holdfast/internal/model"
)

// MemoryStore is an in-memory implementation of the Store interface,
// useful for testing and one-shot runs. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	pages    map[string][]model.Highlight
	settings *model.Settings
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[string][]model.Highlight)}
}

func (m *MemoryStore) Load(_ context.Context, pageKey string) ([]model.Highlight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list, _ := decodeList(m.pages[pageKey])
	return list, nil
}

func (m *MemoryStore) Save(_ context.Context, pageKey string, highlights []model.Highlight) error {
	cp := make([]model.Highlight, len(highlights))
	copy(cp, highlights)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(cp) == 0 {
		delete(m.pages, pageKey)
		return nil
	}
	m.pages[pageKey] = cp
	return nil
}

func (m *MemoryStore) LoadSettings(_ context.Context) (model.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return model.DefaultSettings(), nil
	}
	return *m.settings, nil
}

func (m *MemoryStore) SaveSettings(_ context.Context, s model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

func (m *MemoryStore) Pages(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.pages))
	for k := range m.pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Dump(ctx context.Context) (*model.Archive, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a := &model.Archive{Pages: make(map[string][]model.Highlight, len(m.pages))}
	for k, v := range m.pages {
		cp := make([]model.Highlight, len(v))
		copy(cp, v)
		a.Pages[k] = cp
	}
	if m.settings != nil {
		a.Settings = *m.settings
	} else {
		a.Settings = model.DefaultSettings()
	}
	return a, nil
}

func (m *MemoryStore) RestoreArchive(_ context.Context, a *model.Archive, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !merge {
		m.pages = make(map[string][]model.Highlight, len(a.Pages))
	}
	for k, v := range a.Pages {
		cp := make([]model.Highlight, len(v))
		copy(cp, v)
		m.pages[k] = cp
	}
	s := a.Settings
	m.settings = &s
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
