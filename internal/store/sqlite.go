package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"holdfast/internal/model"
	"holdfast/internal/store/migrations"
)

// SQLiteStore persists highlight lists in a SQLite database. Each highlight
// row stores the full JSON record as payload; the schema only indexes what
// list retrieval needs (page and position).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path (":memory:" works) and brings
// the schema to the latest version.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite ships with foreign keys off.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, pageKey string) ([]model.Highlight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM highlights WHERE page_url = ? ORDER BY position`, pageKey)
	if err != nil {
		return nil, fmt.Errorf("loading highlights for %s: %w", pageKey, err)
	}
	defer rows.Close()

	var list []model.Highlight
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning highlight row: %w", err)
		}
		var h model.Highlight
		if err := json.Unmarshal([]byte(payload), &h); err != nil {
			// Unreadable payloads are skipped like any malformed record.
			continue
		}
		list = append(list, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading highlight rows: %w", err)
	}
	list, _ = decodeList(list)
	return list, nil
}

func (s *SQLiteStore) Save(ctx context.Context, pageKey string, highlights []model.Highlight) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	// Whole-list replace: clear the page's rows and reinsert in order.
	if _, err := tx.ExecContext(ctx, `DELETE FROM highlights WHERE page_url = ?`, pageKey); err != nil {
		return fmt.Errorf("clearing highlights for %s: %w", pageKey, err)
	}

	if len(highlights) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE url = ?`, pageKey); err != nil {
			return fmt.Errorf("removing page %s: %w", pageKey, err)
		}
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO pages (url) VALUES (?)`, pageKey); err != nil {
		return fmt.Errorf("inserting page %s: %w", pageKey, err)
	}
	for i := range highlights {
		payload, err := json.Marshal(&highlights[i])
		if err != nil {
			return fmt.Errorf("encoding highlight %s: %w", highlights[i].ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO highlights (id, page_url, position, payload) VALUES (?, ?, ?, ?)`,
			highlights[i].ID, pageKey, i, string(payload))
		if err != nil {
			return fmt.Errorf("inserting highlight %s: %w", highlights[i].ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (model.Settings, error) {
	settings := model.DefaultSettings()
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'settings'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("loading settings: %w", err)
	}
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return model.DefaultSettings(), nil
	}
	return settings, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, settings model.Settings) error {
	value, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('settings', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, string(value))
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Pages(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM pages ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var pages []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		pages = append(pages, url)
	}
	return pages, rows.Err()
}

func (s *SQLiteStore) Dump(ctx context.Context) (*model.Archive, error) {
	pages, err := s.Pages(ctx)
	if err != nil {
		return nil, err
	}
	a := &model.Archive{Pages: make(map[string][]model.Highlight, len(pages))}
	for _, page := range pages {
		list, err := s.Load(ctx, page)
		if err != nil {
			return nil, err
		}
		a.Pages[page] = list
	}
	a.Settings, err = s.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) RestoreArchive(ctx context.Context, a *model.Archive, merge bool) error {
	if !merge {
		existing, err := s.Pages(ctx)
		if err != nil {
			return err
		}
		for _, page := range existing {
			if _, ok := a.Pages[page]; ok {
				continue
			}
			if err := s.Save(ctx, page, nil); err != nil {
				return err
			}
		}
	}
	for page, list := range a.Pages {
		if err := s.Save(ctx, page, list); err != nil {
			return err
		}
	}
	return s.SaveSettings(ctx, a.Settings)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
