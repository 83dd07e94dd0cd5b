package testutil

import (
	"context"
	"errors"

	"holdfast/internal/model"
	"holdfast/internal/store"
)

// ErrStoreDown is what FlakyStore returns while failures are armed.
var ErrStoreDown = errors.New("store unreachable")

// FlakyStore wraps a MemoryStore and fails writes on demand, for testing
// persistence-failure handling.
type FlakyStore struct {
	*store.MemoryStore
	FailSaves bool
}

func NewFlakyStore() *FlakyStore {
	return &FlakyStore{MemoryStore: store.NewMemoryStore()}
}

func (f *FlakyStore) Save(ctx context.Context, pageKey string, highlights []model.Highlight) error {
	if f.FailSaves {
		return ErrStoreDown
	}
	return f.MemoryStore.Save(ctx, pageKey, highlights)
}

func (f *FlakyStore) SaveSettings(ctx context.Context, s model.Settings) error {
	if f.FailSaves {
		return ErrStoreDown
	}
	return f.MemoryStore.SaveSettings(ctx, s)
}
