package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"holdfast/internal/model"
)

// Key layout: one JSON array of highlights per page under "page/<url>",
// plus a single "settings" key. A whole-list save is one Set inside one
// transaction, which is what makes the replace atomic.
const (
	pageKeyPrefix = "page/"
	settingsKey   = "settings"
)

// BadgerStore persists highlight lists in a BadgerDB directory.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (creating if needed) a BadgerDB at dirPath.
func NewBadgerStore(dirPath string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dirPath).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening highlight database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Load(_ context.Context, pageKey string) ([]model.Highlight, error) {
	var list []model.Highlight
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(pageKeyPrefix + pageKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &list)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading highlights for %s: %w", pageKey, err)
	}
	list, _ = decodeList(list)
	return list, nil
}

func (b *BadgerStore) Save(_ context.Context, pageKey string, highlights []model.Highlight) error {
	key := []byte(pageKeyPrefix + pageKey)
	err := b.db.Update(func(txn *badger.Txn) error {
		if len(highlights) == 0 {
			err := txn.Delete(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		data, err := json.Marshal(highlights)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("saving highlights for %s: %w", pageKey, err)
	}
	return nil
}

func (b *BadgerStore) LoadSettings(_ context.Context) (model.Settings, error) {
	settings := model.DefaultSettings()
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(settingsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if err != nil {
		return model.DefaultSettings(), fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

func (b *BadgerStore) SaveSettings(_ context.Context, s model.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(settingsKey), data)
	})
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

func (b *BadgerStore) Pages(_ context.Context) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(pageKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().Key())
			keys = append(keys, strings.TrimPrefix(k, pageKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *BadgerStore) Dump(ctx context.Context) (*model.Archive, error) {
	a := &model.Archive{Pages: map[string][]model.Highlight{}}
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pageKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			page := strings.TrimPrefix(string(item.Key()), pageKeyPrefix)
			var list []model.Highlight
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &list)
			}); err != nil {
				return err
			}
			a.Pages[page] = list
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dumping store: %w", err)
	}
	settings, err := b.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	a.Settings = settings
	return a, nil
}

func (b *BadgerStore) RestoreArchive(ctx context.Context, a *model.Archive, merge bool) error {
	if !merge {
		existing, err := b.Pages(ctx)
		if err != nil {
			return err
		}
		err = b.db.Update(func(txn *badger.Txn) error {
			for _, page := range existing {
				if err := txn.Delete([]byte(pageKeyPrefix + page)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("clearing store: %w", err)
		}
	}
	for page, list := range a.Pages {
		if err := b.Save(ctx, page, list); err != nil {
			return err
		}
	}
	return b.SaveSettings(ctx, a.Settings)
}

func (b *BadgerStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

var _ Store = (*BadgerStore)(nil)
