// Package store provides the persistence backends holding per-page
// highlight lists and the settings record. Three implementations share one
// contract: memory (tests and throwaway runs), badger (the default
// key-value store) and sqlite.
package store

import (
	"context"

	"holdfast/internal/engine"
	"holdfast/internal/model"
)

// Store is the full persistence surface. The engine depends only on the
// load/save subset (engine.Store); the export/import and CLI layers use the
// rest.
type Store interface {
	engine.Store

	// Pages returns the normalized URLs of every page with stored
	// highlights, sorted.
	Pages(ctx context.Context) ([]string, error)

	// Dump returns the entire persisted structure for export.
	Dump(ctx context.Context) (*model.Archive, error)

	// RestoreArchive loads an archive into the store. With merge set,
	// existing pages absent from the archive are kept; otherwise the store
	// is replaced wholesale.
	RestoreArchive(ctx context.Context, a *model.Archive, merge bool) error

	Close() error
}

// decodeList drops list entries that fail structural validation, returning
// the survivors and the number dropped. Stored data may predate the current
// shape or come from an import; a bad record is skipped, never fatal.
func decodeList(in []model.Highlight) (out []model.Highlight, dropped int) {
	out = make([]model.Highlight, 0, len(in))
	for i := range in {
		if err := in[i].Validate(); err != nil {
			dropped++
			continue
		}
		out = append(out, in[i])
	}
	return out, dropped
}
