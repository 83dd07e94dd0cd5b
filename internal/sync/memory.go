package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryTarget keeps uploaded archives in memory. Useful for tests.
// Safe for concurrent use.
type MemoryTarget struct {
	name    string
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryTarget creates an empty in-memory target with the given name.
func NewMemoryTarget(name string) *MemoryTarget {
	return &MemoryTarget{name: name, objects: make(map[string][]byte)}
}

func (m *MemoryTarget) Name() string { return m.name }

func (m *MemoryTarget) Put(_ context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemoryTarget) Get(_ context.Context, key string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return fmt.Errorf("archive not found: %s", key)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}

func (m *MemoryTarget) Validate(context.Context) error { return nil }

var _ Target = (*MemoryTarget)(nil)
